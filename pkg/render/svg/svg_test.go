package svg

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
)

func TestStepPath(t *testing.T) {
	tests := []struct {
		name string
		a, b family.Point
		dir  layout.Direction
		want string
	}{
		{
			name: "straight",
			a:    family.Point{X: 100, Y: 120}, b: family.Point{X: 100, Y: 220},
			dir:  layout.TB,
			want: "M100.0,120.0 L100.0,220.0",
		},
		{
			name: "step right TB",
			a:    family.Point{X: 100, Y: 120}, b: family.Point{X: 300, Y: 220},
			dir:  layout.TB,
			want: "M100.0,120.0 L100.0,162.0 Q100.0,170.0 108.0,170.0 L292.0,170.0 Q300.0,170.0 300.0,178.0 L300.0,220.0",
		},
		{
			name: "step down LR",
			a:    family.Point{X: 200, Y: 60}, b: family.Point{X: 300, Y: 230},
			dir:  layout.LR,
			want: "M200.0,60.0 L242.0,60.0 Q250.0,60.0 250.0,68.0 L250.0,222.0 Q250.0,230.0 258.0,230.0 L300.0,230.0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepPath(tt.a, tt.b, tt.dir); got != tt.want {
				t.Errorf("StepPath =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestEndpoints(t *testing.T) {
	src := family.NewHousehold("p", family.Member{Name: "P"})
	src.Spouses = []family.Member{{Name: "A"}, {Name: "B"}} // 420 x 300
	src.Position = family.Point{X: 0, Y: 0}
	dst := family.NewHousehold("c", family.Member{Name: "C"})
	dst.Position = family.Point{X: 400, Y: 400}

	e := family.Edge{Source: "p", Target: "c", SourceAnchor: family.SpouseAnchor(1)}
	from, to := Endpoints(e, src, dst, layout.TB)
	if from != (family.Point{X: 320, Y: 300}) || to != (family.Point{X: 500, Y: 400}) {
		t.Errorf("TB endpoints = %v → %v", from, to)
	}
	from, to = Endpoints(e, src, dst, layout.LR)
	if from != (family.Point{X: 420, Y: 240}) || to != (family.Point{X: 400, Y: 460}) {
		t.Errorf("LR endpoints = %v → %v", from, to)
	}
}

func laidOut(t *testing.T, dir layout.Direction) family.Tree {
	t.Helper()
	tree, err := family.NewTree("The <Smiths>", family.Member{Name: "John Smith", Nickname: "Jack", Gender: family.Male, Mobile: "555-0100"})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	root := tree.Nodes[0].ID
	if tree, err = family.AddSpouse(tree, root, family.Member{Name: "Mary"}); err != nil {
		t.Fatalf("AddSpouse: %v", err)
	}
	if tree, err = family.AddSpouse(tree, root, family.Member{Name: "Ann", Gender: family.Female}); err != nil {
		t.Fatalf("AddSpouse: %v", err)
	}
	if tree, _, err = family.AddChild(tree, root, family.SpouseAnchor(1), family.Member{Name: "Tom & Jerry", ChildIndex: "1"}); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	out, err := layout.LayoutTree(context.Background(), tree, dir)
	if err != nil {
		t.Fatalf("LayoutTree: %v", err)
	}
	return out
}

func TestRender(t *testing.T) {
	tree := laidOut(t, layout.TB)
	doc := string(RenderTree(tree, WithMargin(50)))

	b := layout.Bounds(tree.Nodes)
	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`<title>The &lt;Smiths&gt;</title>`,
		`fill="` + Background + `"`,
		`class="household fan"`,
		`class="household unified"`,
		"John Smith (Jack)",
		"555-0100",
		"Tom &amp; Jerry",
		"#1",
		FemaleColor,
		MaleColor,
		`class="edge"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	wantBox := fmt.Sprintf(`width="%.0f" height="%.0f"`, b.Width+100, b.Height+100)
	if !strings.Contains(doc, wantBox) {
		t.Errorf("SVG missing size %s", wantBox)
	}
	if strings.Contains(doc, `class="heart"`) {
		t.Error("fan household drawn with a couple heart")
	}
}

func TestRenderCouple(t *testing.T) {
	h := family.NewHousehold("h", family.Member{Name: "A"})
	h.Spouses = []family.Member{{Name: "B"}}
	doc := string(Render([]family.Household{h}, nil, WithTransparentBackground()))
	if !strings.Contains(doc, `class="heart"`) {
		t.Error("couple drawn without heart")
	}
	if strings.Contains(doc, Background) {
		t.Error("transparent drawing has a background")
	}
	if !strings.Contains(doc, `class="person female"`) {
		t.Error("spouse without gender not drawn as female")
	}
}

func TestRenderSkipsDanglingEdges(t *testing.T) {
	h := family.NewHousehold("h", family.Member{Name: "A"})
	doc := string(Render([]family.Household{h}, []family.Edge{{ID: "x", Source: "h", Target: "gone"}}))
	if strings.Contains(doc, `id="edge-x"`) {
		t.Error("edge to a missing household was drawn")
	}
}

func TestRenderEdgeStyle(t *testing.T) {
	tree := laidOut(t, layout.LR)
	tree.Edges[0].Style = map[string]any{"stroke": "#abcdef", "strokeWidth": 3.5}
	doc := string(RenderTree(tree))
	if !strings.Contains(doc, `stroke="#abcdef" stroke-width="3.5"`) {
		t.Error("edge style not applied")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 100, 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	got := truncate("a very long name that will not fit", 55, 10)
	if got != "a very lo…" {
		t.Errorf("truncate = %q", got)
	}
}
