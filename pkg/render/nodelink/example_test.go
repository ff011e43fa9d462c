package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/render/nodelink"
)

func ExampleToDOT() {
	parent := family.NewHousehold("p", family.Member{Name: "Ada"})
	parent.Spouses = []family.Member{{Name: "Ben"}, {Name: "Carl"}}
	child := family.NewHousehold("c", family.Member{Name: "Dora"})

	dot := nodelink.ToDOT(
		[]family.Household{parent, child},
		[]family.Edge{{ID: "e", Source: "p", Target: "c", SourceAnchor: family.SpouseAnchor(1)}},
		nodelink.Options{},
	)
	fmt.Print(dot)
	// Output:
	// digraph G {
	//   rankdir=TB;
	//   bgcolor="transparent";
	//   node [shape=record, style="rounded,filled", fillcolor=white, fontsize=14];
	//   ranksep=0.5;
	//   nodesep=0.3;
	//
	//   "p" [label="{<p> Ada | <s0> Ben | <s1> Carl}"];
	//   "c" [label="{<p> Dora}"];
	//
	//   "p":s1 -> "c";
	// }
}
