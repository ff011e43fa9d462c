package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/stemma/pkg/family"
)

func couple() []family.Household {
	p := family.NewHousehold("p", family.Member{Name: "Omar", Nickname: "Oz", Gender: family.Male})
	p.Spouses = []family.Member{{Name: "Lena", Gender: family.Female}, {Name: "Rae"}}
	return []family.Household{p, family.NewHousehold("c", family.Member{Name: "Kid", ChildIndex: "2"})}
}

func TestToDOT_Basic(t *testing.T) {
	nodes := couple()
	dot := ToDOT(nodes, []family.Edge{{Source: "p", Target: "c", SourceAnchor: family.SpouseAnchor(1)}}, Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=TB;",
		`"p" [label="{<p> Omar | <s0> Lena | <s1> Rae}"];`,
		`"c" [label="{<p> Kid}"];`,
		`"p":s1 -> "c";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(couple(), nil, Options{Detailed: true, LeftToRight: true})
	for _, want := range []string{"rankdir=LR;", "Omar (Oz) male", "Kid #2", `label="<p> Kid #2"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() detailed output missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOT_UnknownAnchorAndDanglingEdges(t *testing.T) {
	edges := []family.Edge{
		{Source: "p", Target: "c", SourceAnchor: family.SpouseAnchor(9)},
		{Source: "p", Target: "nobody"},
	}
	dot := ToDOT(couple(), edges, Options{})
	if !strings.Contains(dot, `"p":p -> "c";`) {
		t.Errorf("unknown anchor not mapped to primary:\n%s", dot)
	}
	if strings.Contains(dot, "nobody") {
		t.Errorf("dangling edge emitted:\n%s", dot)
	}
}

func TestEscapeRecord(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"", " "},
		{"a|b", `a\|b`},
		{"{x} <y>", `\{x\} \<y\>`},
	}
	for _, tt := range tests {
		if got := escapeRecord(tt.in); got != tt.want {
			t.Errorf("escapeRecord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	dot := TreeToDOT(family.Tree{Nodes: couple(), Edges: []family.Edge{{Source: "p", Target: "c"}}}, Options{})
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("viewBox not normalized: %.200s", s)
	}
	if !strings.Contains(s, "Omar") {
		t.Error("SVG missing member name")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s", got)
	}
}
