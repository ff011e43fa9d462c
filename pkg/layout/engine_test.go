package layout

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
)

const eps = 1e-6

func edge(src, tgt string, anchor family.Anchor) family.Edge {
	return family.Edge{ID: "e" + src + "-" + tgt, Source: src, Target: tgt, SourceAnchor: anchor}
}

func positions(res Result) map[string]family.Point {
	out := make(map[string]family.Point, len(res.Nodes))
	for _, h := range res.Nodes {
		out[h.ID] = h.Position
	}
	return out
}

func near(a, b family.Point) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestLayoutEmpty(t *testing.T) {
	res, err := Layout(context.Background(), nil, nil, TB)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(res.Nodes) != 0 || len(res.Edges) != 0 {
		t.Errorf("Layout(empty) = %+v", res)
	}
}

func TestLayoutSingleHousehold(t *testing.T) {
	for _, dir := range []Direction{TB, LR} {
		res, err := Layout(context.Background(), []family.Household{household("a", 0)}, nil, dir)
		if err != nil {
			t.Fatalf("Layout(%s): %v", dir, err)
		}
		h := res.Nodes[0]
		if !near(h.Position, family.Point{}) {
			t.Errorf("%s: position = %+v, want origin", dir, h.Position)
		}
		target, source := dir.Sides()
		if h.TargetSide != target || h.SourceSide != source {
			t.Errorf("%s: sides = %s/%s, want %s/%s", dir, h.TargetSide, h.SourceSide, target, source)
		}
	}
}

func TestLayoutParentWithTwoChildren(t *testing.T) {
	nodes := []family.Household{household("p", 0), household("a", 0), household("b", 0)}
	edges := []family.Edge{edge("p", "a", ""), edge("p", "b", "")}

	tests := []struct {
		dir  Direction
		want map[string]family.Point
	}{
		{TB, map[string]family.Point{
			"p": {X: 125, Y: 0},
			"a": {X: 0, Y: 220},
			"b": {X: 250, Y: 220},
		}},
		{LR, map[string]family.Point{
			"p": {X: 0, Y: 85},
			"a": {X: 300, Y: 0},
			"b": {X: 300, Y: 170},
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			res, err := Layout(context.Background(), nodes, edges, tt.dir)
			if err != nil {
				t.Fatalf("Layout: %v", err)
			}
			got := positions(res)
			for id, want := range tt.want {
				if !near(got[id], want) {
					t.Errorf("%s at %+v, want %+v", id, got[id], want)
				}
			}
		})
	}
}

func TestLayoutDisconnectedSideBySide(t *testing.T) {
	nodes := []family.Household{household("a", 0), household("b", 1)}
	res, err := Layout(context.Background(), nodes, nil, TB)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	got := positions(res)
	if !near(got["a"], family.Point{X: 0, Y: 0}) || !near(got["b"], family.Point{X: 250, Y: 0}) {
		t.Errorf("positions = %+v", got)
	}
}

func TestLayoutRejectsInvalidGraphs(t *testing.T) {
	a, b := household("a", 0), household("b", 0)
	tests := []struct {
		name  string
		nodes []family.Household
		edges []family.Edge
	}{
		{"empty id", []family.Household{household("", 0)}, nil},
		{"duplicate id", []family.Household{a, a}, nil},
		{"unknown target", []family.Household{a}, []family.Edge{edge("a", "zz", "")}},
		{"unknown source", []family.Household{a}, []family.Edge{edge("zz", "a", "")}},
		{"self loop", []family.Household{a}, []family.Edge{edge("a", "a", "")}},
		{"cycle", []family.Household{a, b}, []family.Edge{edge("a", "b", ""), edge("b", "a", "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Layout(context.Background(), tt.nodes, tt.edges, TB)
			if !errors.Is(err, errors.ErrCodeInvalidGraph) {
				t.Errorf("Layout error = %v, want %s", err, errors.ErrCodeInvalidGraph)
			}
		})
	}
}

func TestLayoutRejectsUnknownDirection(t *testing.T) {
	_, err := Layout(context.Background(), []family.Household{household("a", 0)}, nil, "BT")
	if !errors.Is(err, errors.ErrCodeInvalidDirection) {
		t.Errorf("Layout error = %v, want %s", err, errors.ErrCodeInvalidDirection)
	}
}

func TestLayoutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Layout(ctx, []family.Household{household("a", 0)}, nil, TB)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Layout error = %v, want context.Canceled", err)
	}
}

func TestLayoutDoesNotMutateInput(t *testing.T) {
	nodes, edges := randomFamily(7, 12)
	nodes[0].Position = family.Point{X: -40, Y: 17}
	before := family.Tree{Nodes: slices.Clone(nodes), Edges: slices.Clone(edges)}.Clone()

	res, err := Layout(context.Background(), nodes, edges, LR)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if !reflect.DeepEqual(nodes, before.Nodes) || !reflect.DeepEqual(edges, before.Edges) {
		t.Fatal("Layout modified its input")
	}
	res.Nodes[0].Spouses = append(res.Nodes[0].Spouses, family.Member{Name: "x"})
	for i := range res.Edges {
		res.Edges[i].Style = map[string]any{"stroke": "red"}
	}
	if !reflect.DeepEqual(nodes, before.Nodes) || !reflect.DeepEqual(edges, before.Edges) {
		t.Fatal("Layout result shares memory with its input")
	}
}

func TestLayoutKeepsOrderAndData(t *testing.T) {
	nodes, edges := randomFamily(3, 15)
	res, err := Layout(context.Background(), nodes, edges, TB)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	for i, h := range res.Nodes {
		if h.ID != nodes[i].ID || !reflect.DeepEqual(h.Primary, nodes[i].Primary) || !reflect.DeepEqual(h.Spouses, nodes[i].Spouses) {
			t.Errorf("node %d = %s, want %s unchanged", i, h.ID, nodes[i].ID)
		}
	}
	if !reflect.DeepEqual(res.Edges, edges) {
		t.Error("edges changed")
	}
}

// randomFamily builds a forest of households with up to three spouses each,
// where some children descend from two households.
func randomFamily(seed uint64, n int) ([]family.Household, []family.Edge) {
	r := rand.New(rand.NewPCG(seed, seed*31+7))
	nodes := make([]family.Household, n)
	var edges []family.Edge
	for i := range n {
		nodes[i] = household(fmt.Sprintf("h%02d", i), r.IntN(4))
		if i == 0 || r.IntN(5) == 0 {
			continue
		}
		parents := []int{r.IntN(i)}
		if i > 2 && r.IntN(4) == 0 {
			if p := r.IntN(i); p != parents[0] {
				parents = append(parents, p)
			}
		}
		for _, p := range parents {
			anchors := nodes[p].Anchors()
			edges = append(edges, edge(nodes[p].ID, nodes[i].ID, anchors[r.IntN(len(anchors))]))
		}
	}
	return nodes, edges
}

type box struct {
	id        string
	x, y      float64
	w, h      float64
	rankDepth float64 // center along the flow axis
}

func boxes(res Result, dir Direction) map[string]box {
	out := make(map[string]box, len(res.Nodes))
	for _, n := range res.Nodes {
		s := Resolve(n)
		b := box{id: n.ID, x: n.Position.X, y: n.Position.Y, w: s.Width, h: s.Height}
		if dir == LR {
			b.rankDepth = b.x + b.w/2
		} else {
			b.rankDepth = b.y + b.h/2
		}
		out[n.ID] = b
	}
	return out
}

func overlap(a, b box) bool {
	return a.x < b.x+b.w-eps && b.x < a.x+a.w-eps && a.y < b.y+b.h-eps && b.y < a.y+a.h-eps
}

func TestLayoutProperties(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		nodes, edges := randomFamily(seed, 5+int(seed))
		for _, dir := range []Direction{TB, LR} {
			t.Run(fmt.Sprintf("seed%d/%s", seed, dir), func(t *testing.T) {
				res, err := Layout(context.Background(), nodes, edges, dir)
				if err != nil {
					t.Fatalf("Layout: %v", err)
				}
				bs := boxes(res, dir)

				for i, a := range res.Nodes {
					for _, b := range res.Nodes[i+1:] {
						if overlap(bs[a.ID], bs[b.ID]) {
							t.Errorf("%s overlaps %s", a.ID, b.ID)
						}
					}
				}

				for _, e := range edges {
					s, c := bs[e.Source], bs[e.Target]
					if dir == TB && c.y < s.y+s.h+SpacingY-eps {
						t.Errorf("%s→%s: child top %v above parent bottom %v + gap", e.Source, e.Target, c.y, s.y+s.h)
					}
					if dir == LR && c.x < s.x+s.w+SpacingY-eps {
						t.Errorf("%s→%s: child left %v before parent right %v + gap", e.Source, e.Target, c.x, s.x+s.w)
					}
				}

				r := Bounds(res.Nodes)
				if math.Abs(r.X) > eps || math.Abs(r.Y) > eps {
					t.Errorf("drawing starts at (%v,%v), want origin", r.X, r.Y)
				}
			})
		}
	}
}

func TestLayoutDeterministic(t *testing.T) {
	nodes, edges := randomFamily(11, 20)
	first, err := Layout(context.Background(), nodes, edges, TB)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	for range 5 {
		again, err := Layout(context.Background(), nodes, edges, TB)
		if err != nil {
			t.Fatalf("Layout: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("layout differs between runs")
		}
	}
}

func TestLayoutIdempotent(t *testing.T) {
	nodes, edges := randomFamily(5, 14)
	for _, dir := range []Direction{TB, LR} {
		first, err := Layout(context.Background(), nodes, edges, dir)
		if err != nil {
			t.Fatalf("Layout: %v", err)
		}
		second, err := Layout(context.Background(), first.Nodes, first.Edges, dir)
		if err != nil {
			t.Fatalf("Layout: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: re-layout moved households", dir)
		}
	}
}

// rankOrder groups households into generations by their position along the
// flow axis and lists each generation in sibling order.
func rankOrder(res Result, dir Direction) [][]string {
	bs := boxes(res, dir)
	ids := make([]string, 0, len(bs))
	for id := range bs {
		ids = append(ids, id)
	}
	cross := func(b box) float64 {
		if dir == LR {
			return b.y
		}
		return b.x
	}
	slices.SortFunc(ids, func(a, b string) int {
		if d := bs[a].rankDepth - bs[b].rankDepth; math.Abs(d) > eps {
			return sign(d)
		}
		return sign(cross(bs[a]) - cross(bs[b]))
	})

	var out [][]string
	last := math.Inf(-1)
	for _, id := range ids {
		if bs[id].rankDepth-last > eps {
			out = append(out, nil)
			last = bs[id].rankDepth
		}
		out[len(out)-1] = append(out[len(out)-1], id)
	}
	return out
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	}
	return 0
}

func TestLayoutDirectionSymmetry(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		nodes, edges := randomFamily(seed, 12)
		tb, err := Layout(context.Background(), nodes, edges, TB)
		if err != nil {
			t.Fatalf("Layout TB: %v", err)
		}
		lr, err := Layout(context.Background(), nodes, edges, LR)
		if err != nil {
			t.Fatalf("Layout LR: %v", err)
		}
		if a, b := rankOrder(tb, TB), rankOrder(lr, LR); !reflect.DeepEqual(a, b) {
			t.Errorf("seed %d: TB generations %v, LR generations %v", seed, a, b)
		}
	}
}

func TestLayoutSpouseAnchorsOrderChildren(t *testing.T) {
	p := household("p", 2)
	nodes := []family.Household{p, household("c1", 0), household("c0", 0), household("cp", 0)}
	edges := []family.Edge{
		edge("p", "c1", family.SpouseAnchor(1)),
		edge("p", "c0", family.SpouseAnchor(0)),
		edge("p", "cp", family.AnchorPrimary),
	}
	res, err := Layout(context.Background(), nodes, edges, TB)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	got := positions(res)
	if !(got["cp"].X < got["c0"].X && got["c0"].X < got["c1"].X) {
		t.Errorf("children not in anchor order: %+v", got)
	}
}

// recorder is a Drawer that records what the engine registers and places
// every node at a fixed center.
type recorder struct {
	sizes map[string]Size
	ports map[string]Port
	err   error
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) SetNode(id string, size Size) {
	if r.sizes == nil {
		r.sizes = map[string]Size{}
	}
	r.sizes[id] = size
}

func (r *recorder) SetEdge(source, target string, port Port) {
	if r.ports == nil {
		r.ports = map[string]Port{}
	}
	r.ports[source+">"+target] = port
}

func (r *recorder) Layout(_ context.Context, _ Direction, _ Separation) (map[string]family.Point, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := map[string]family.Point{}
	for id := range r.sizes {
		out[id] = family.Point{X: 1000, Y: 500}
	}
	return out, nil
}

func TestLayoutDrawerContract(t *testing.T) {
	nodes := []family.Household{household("p", 3), household("a", 0), household("b", 1)}
	edges := []family.Edge{edge("p", "a", family.SpouseAnchor(2)), edge("p", "b", "")}
	rec := &recorder{}

	res, err := Layout(context.Background(), nodes, edges, TB, WithDrawer(func() Drawer { return rec }))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if rec.sizes["p"] != (Size{640, 300}) || rec.sizes["b"] != (Size{400, 120}) {
		t.Errorf("sizes = %+v", rec.sizes)
	}
	if got := rec.ports["p>a"]; got != (Port{Slot: 3, Offset: 220}) {
		t.Errorf("p>a port = %+v", got)
	}
	if got := rec.ports["p>b"]; got != (Port{Slot: 0, Offset: 0}) {
		t.Errorf("p>b port = %+v", got)
	}
	got := positions(res)
	if !near(got["p"], family.Point{X: 680, Y: 350}) || !near(got["b"], family.Point{X: 800, Y: 440}) {
		t.Errorf("top-left conversion = %+v", got)
	}
}

func TestLayoutWrapsDrawerErrors(t *testing.T) {
	rec := &recorder{err: fmt.Errorf("boom")}
	_, err := Layout(context.Background(), []family.Household{household("a", 0)}, nil, TB,
		WithDrawer(func() Drawer { return rec }))
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Layout error = %v, want %s", err, errors.ErrCodeInternal)
	}
}

func TestWithSeparation(t *testing.T) {
	nodes := []family.Household{household("p", 0), household("c", 0)}
	edges := []family.Edge{edge("p", "c", "")}
	res, err := Layout(context.Background(), nodes, edges, TB, WithSeparation(Separation{RankSep: 40}))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if got := positions(res)["c"].Y; math.Abs(got-160) > eps {
		t.Errorf("child y = %v, want 160", got)
	}
}

func TestLayoutTree(t *testing.T) {
	tree, err := family.NewTree("Smiths", family.Member{})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	tree, _, err = family.AddChild(tree, tree.Nodes[0].ID, "", family.Member{Name: "Kid", Gender: family.Female})
	if err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	out, err := LayoutTree(context.Background(), tree, LR)
	if err != nil {
		t.Fatalf("LayoutTree: %v", err)
	}
	if out.ID != tree.ID || out.Name != tree.Name || len(out.Nodes) != 2 {
		t.Fatalf("LayoutTree = %+v", out)
	}
	if out.Nodes[1].Position.X != 300 || out.Nodes[1].TargetSide != family.SideLeft {
		t.Errorf("child = %+v", out.Nodes[1])
	}
}
