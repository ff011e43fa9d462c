package dot

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
)

func TestDOT(t *testing.T) {
	d := New().(*drawer)
	d.SetNode("p", layout.Size{Width: 420, Height: 300})
	d.SetNode("a", layout.Size{Width: 200, Height: 120})
	d.SetNode("b", layout.Size{Width: 200, Height: 120})
	d.SetEdge("p", "b", layout.Port{Slot: 2})
	d.SetEdge("p", "a", layout.Port{Slot: 1})
	d.SetEdge("p", "missing", layout.Port{})

	got := d.DOT(layout.LR, layout.DefaultSeparation())
	for _, want := range []string{
		"rankdir=LR;",
		"ranksep=1.3889;",
		"nodesep=0.6944;",
		"ordering=out;",
		"n0 [width=5.8333, height=4.1667];",
		"n1 [width=2.7778, height=1.6667];",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DOT missing %q:\n%s", want, got)
		}
	}
	if a, b := strings.Index(got, "n0 -> n1;"), strings.Index(got, "n0 -> n2;"); a < 0 || b < 0 || a > b {
		t.Errorf("edges not in slot order:\n%s", got)
	}
	if strings.Count(got, "->") != 2 {
		t.Errorf("edge to unknown node emitted:\n%s", got)
	}
}

func TestCenters(t *testing.T) {
	d := New().(*drawer)
	d.SetNode("p", layout.Size{Width: 200, Height: 120})
	d.SetNode("c", layout.Size{Width: 200, Height: 120})

	out := []byte(`digraph G {
	graph [bb="0,0,208,348",
		nodesep=0.6944,
		ordering=out
	];
	node [fixedsize=true,
		label="",
		shape=box
	];
	n0	[height=1.6667,
		pos="104,284",
		width=2.7778];
	n1	[height=1.6667,
		pos="104,64",
		width=2.7778];
	n0 -> n1	[pos="e,104,124.3 104,223.7 104,196.1 104,162.6 104,134.4"];
}
`)
	got, err := d.centers(out)
	if err != nil {
		t.Fatalf("centers: %v", err)
	}
	if got["p"] != (family.Point{X: 100, Y: 60}) {
		t.Errorf("p = %+v", got["p"])
	}
	if got["c"] != (family.Point{X: 100, Y: 280}) {
		t.Errorf("c = %+v", got["c"])
	}
}

func TestCentersErrors(t *testing.T) {
	d := New().(*drawer)
	d.SetNode("p", layout.Size{Width: 200, Height: 120})
	if _, err := d.centers([]byte(`digraph G { n0 [pos="1,1"]; }`)); err == nil {
		t.Error("missing bounding box accepted")
	}
	if _, err := d.centers([]byte(`digraph G { graph [bb="0,0,10,10"]; }`)); err == nil {
		t.Error("unplaced node accepted")
	}
}

func TestLayoutWithGraphviz(t *testing.T) {
	nodes := []family.Household{
		family.NewHousehold("p", family.Member{Name: "P"}),
		family.NewHousehold("a", family.Member{Name: "A"}),
		family.NewHousehold("b", family.Member{Name: "B"}),
	}
	edges := []family.Edge{
		{ID: "e1", Source: "p", Target: "a"},
		{ID: "e2", Source: "p", Target: "b"},
	}
	res, err := layout.Layout(context.Background(), nodes, edges, layout.TB, layout.WithDrawer(New))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	pos := map[string]family.Point{}
	for _, h := range res.Nodes {
		pos[h.ID] = h.Position
	}
	if pos["a"].Y < pos["p"].Y+layout.CardHeight {
		t.Errorf("child a at %v not below parent at %v", pos["a"], pos["p"])
	}
	if pos["a"].X+layout.CardWidth > pos["b"].X {
		t.Errorf("siblings overlap or out of order: a=%v b=%v", pos["a"], pos["b"])
	}
	if r := layout.Bounds(res.Nodes); r.X != 0 || r.Y != 0 {
		t.Errorf("drawing starts at %v,%v", r.X, r.Y)
	}
}
