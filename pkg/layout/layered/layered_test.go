package layered

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"

	"github.com/matzehuels/stemma/pkg/dag"
)

const eps = 1e-6

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func box(id string) Node { return Node{ID: id, Breadth: 200, Depth: 120} }

func TestFitRow(t *testing.T) {
	tests := []struct {
		name    string
		targets []float64
		weights []float64
		gaps    []float64
		want    []float64
	}{
		{
			name:    "single",
			targets: []float64{42},
			weights: []float64{1},
			want:    []float64{42},
		},
		{
			name:    "already feasible",
			targets: []float64{0, 300},
			weights: []float64{1, 1},
			gaps:    []float64{250},
			want:    []float64{0, 300},
		},
		{
			name:    "shared target splits evenly",
			targets: []float64{0, 0},
			weights: []float64{1, 1},
			gaps:    []float64{250},
			want:    []float64{-125, 125},
		},
		{
			name:    "heavy node stays put",
			targets: []float64{0, 0},
			weights: []float64{3, 1},
			gaps:    []float64{100},
			want:    []float64{-25, 75},
		},
		{
			name:    "three way pool",
			targets: []float64{10, 0, -10},
			weights: []float64{1, 1, 1},
			gaps:    []float64{50, 50},
			want:    []float64{-50, 0, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fitRow(tt.targets, tt.weights, tt.gaps)
			if len(got) != len(tt.want) {
				t.Fatalf("fitRow() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !approx(got[i], tt.want[i]) {
					t.Fatalf("fitRow() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPlaceEmpty(t *testing.T) {
	got, err := Place(nil, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Place() = %v, want empty", got)
	}
}

func TestPlaceErrors(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
		want  error
	}{
		{"empty id", []Node{box("")}, nil, dag.ErrInvalidNodeID},
		{"duplicate", []Node{box("a"), box("a")}, nil, dag.ErrDuplicateNodeID},
		{"unknown source", []Node{box("a")}, []Edge{{From: "x", To: "a"}}, dag.ErrUnknownSourceNode},
		{"unknown target", []Node{box("a")}, []Edge{{From: "a", To: "x"}}, dag.ErrUnknownTargetNode},
		{"self loop", []Node{box("a")}, []Edge{{From: "a", To: "a"}}, dag.ErrSelfLoop},
		{"cycle", []Node{box("a"), box("b")}, []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}}, dag.ErrGraphHasCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Place(tt.nodes, tt.edges, DefaultConfig()); !errors.Is(err, tt.want) {
				t.Errorf("Place() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPlaceSingleNode(t *testing.T) {
	got, err := Place([]Node{box("root")}, nil, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if p := got["root"]; !approx(p.Breadth, 100) || !approx(p.Depth, 60) {
		t.Errorf("root = %+v, want {100 60}", p)
	}
}

func TestPlaceParentWithTwoChildren(t *testing.T) {
	nodes := []Node{box("p"), box("a"), box("b")}
	edges := []Edge{{From: "p", To: "a"}, {From: "p", To: "b"}}
	got, err := Place(nodes, edges, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// children 250 apart, parent centered above them
	if !approx(got["a"].Breadth, 100) || !approx(got["b"].Breadth, 350) {
		t.Errorf("children breadth = %v, %v, want 100, 350", got["a"].Breadth, got["b"].Breadth)
	}
	if !approx(got["p"].Breadth, 225) {
		t.Errorf("parent breadth = %v, want 225", got["p"].Breadth)
	}
	if !approx(got["p"].Depth, 60) || !approx(got["a"].Depth, 280) {
		t.Errorf("depths = %v, %v, want 60, 280", got["p"].Depth, got["a"].Depth)
	}
}

func TestPlacePortsPullChildren(t *testing.T) {
	// A 420-wide household with children attached to its left and right
	// slots, listed right slot first.
	nodes := []Node{{ID: "h", Breadth: 420, Depth: 300}, box("right"), box("left")}
	edges := []Edge{
		{From: "h", To: "right", Slot: 2, Port: 110},
		{From: "h", To: "left", Slot: 1, Port: -110},
	}
	got, err := Place(nodes, edges, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got["left"].Breadth >= got["right"].Breadth {
		t.Fatalf("left child at %v not before right child at %v", got["left"].Breadth, got["right"].Breadth)
	}
	h := got["h"].Breadth
	if l := got["left"].Breadth - h; l > -10 || l < -210 {
		t.Errorf("left child offset %v outside its slot [-210,-10]", l)
	}
	if r := got["right"].Breadth - h; r < 10 || r > 210 {
		t.Errorf("right child offset %v outside its slot [10,210]", r)
	}
}

func TestPlaceDisconnectedSideBySide(t *testing.T) {
	nodes := []Node{box("a"), box("b"), box("c")}
	got, err := Place(nodes, nil, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if !approx(got[id].Depth, 60) {
			t.Errorf("%s depth = %v, want 60", id, got[id].Depth)
		}
	}
	if !(got["a"].Breadth < got["b"].Breadth && got["b"].Breadth < got["c"].Breadth) {
		t.Errorf("isolated roots not in input order: %+v", got)
	}
	if d := got["b"].Breadth - got["a"].Breadth; d < 250-eps {
		t.Errorf("gap between roots = %v, want >= 250", d)
	}
}

func TestPlaceThickRank(t *testing.T) {
	// the fan household makes rank 0 300 deep; its sibling is centered in the band
	nodes := []Node{{ID: "fan", Breadth: 420, Depth: 300}, box("solo"), box("kid")}
	edges := []Edge{{From: "fan", To: "kid"}}
	got, err := Place(nodes, edges, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got["fan"].Depth, 150) || !approx(got["solo"].Depth, 150) {
		t.Errorf("rank 0 depths = %v, %v, want 150", got["fan"].Depth, got["solo"].Depth)
	}
	if !approx(got["kid"].Depth, 300+100+60) {
		t.Errorf("kid depth = %v, want 460", got["kid"].Depth)
	}
}

func TestRanks(t *testing.T) {
	nodes := []Node{box("gp"), box("p"), box("c"), box("in-law")}
	edges := []Edge{{From: "gp", To: "p"}, {From: "p", To: "c"}, {From: "gp", To: "c"}, {From: "in-law", To: "c"}}
	got, err := Ranks(nodes, edges)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"gp": 0, "p": 1, "c": 2, "in-law": 0}
	for id, r := range want {
		if got[id] != r {
			t.Errorf("rank(%s) = %d, want %d", id, got[id], r)
		}
	}
}

// randomForest builds a deterministic family-like DAG: every node after the
// first few picks one or two parents among earlier nodes.
func randomForest(seed uint64, n int) ([]Node, []Edge) {
	rng := rand.New(rand.NewPCG(seed, seed*31+7))
	nodes := make([]Node, n)
	var edges []Edge
	for i := range nodes {
		spouses := rng.IntN(4)
		b, d := float64(200*(1+spouses)), 120.0
		if spouses >= 2 {
			b, d = float64(spouses*200+(spouses-1)*20), 300
		}
		nodes[i] = Node{ID: "n" + strconv.Itoa(i), Breadth: b, Depth: d}
		if i < 2 {
			continue
		}
		parents := 1 + rng.IntN(2)
		seen := map[int]bool{}
		for p := 0; p < parents; p++ {
			j := rng.IntN(i)
			if seen[j] {
				continue
			}
			seen[j] = true
			edges = append(edges, Edge{From: nodes[j].ID, To: nodes[i].ID, Slot: rng.IntN(3)})
		}
	}
	return nodes, edges
}

func TestPlaceProperties(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		nodes, edges := randomForest(seed, 25)
		got, err := Place(nodes, edges, DefaultConfig())
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		ranks, _ := Ranks(nodes, edges)
		size := map[string]Node{}
		for _, n := range nodes {
			size[n.ID] = n
		}

		// no overlap within a rank, NodeSep apart
		for i, a := range nodes {
			for _, b := range nodes[i+1:] {
				if ranks[a.ID] != ranks[b.ID] {
					continue
				}
				gap := math.Abs(got[a.ID].Breadth-got[b.ID].Breadth) - (a.Breadth+b.Breadth)/2
				if gap < 50-eps {
					t.Errorf("seed %d: %s and %s only %v apart", seed, a.ID, b.ID, gap)
				}
			}
		}

		// children start below the parent's box plus the rank gap
		for _, e := range edges {
			p, c := got[e.From], got[e.To]
			parentBottom := p.Depth + size[e.From].Depth/2
			childTop := c.Depth - size[e.To].Depth/2
			if childTop < parentBottom+100-eps {
				t.Errorf("seed %d: %s top %v above %s bottom %v + 100", seed, e.To, childTop, e.From, parentBottom)
			}
		}

		// normalized to the origin
		minB, minD := math.Inf(1), math.Inf(1)
		for _, n := range nodes {
			minB = min(minB, got[n.ID].Breadth-n.Breadth/2)
			minD = min(minD, got[n.ID].Depth-n.Depth/2)
		}
		if !approx(minB, 0) || !approx(minD, 0) {
			t.Errorf("seed %d: min corner = (%v, %v), want (0, 0)", seed, minB, minD)
		}
	}
}

func TestPlaceDeterministic(t *testing.T) {
	nodes, edges := randomForest(99, 40)
	first, err := Place(nodes, edges, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Place(slices.Clone(nodes), slices.Clone(edges), DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		for id, p := range first {
			if again[id] != p {
				t.Fatalf("run %d: %s = %+v, want %+v", i, id, again[id], p)
			}
		}
	}
}

func TestReduceCrossingsUntangles(t *testing.T) {
	// two parents whose children are listed crosswise
	nodes := []Node{box("p1"), box("p2"), box("c2"), box("c1")}
	edges := []Edge{{From: "p1", To: "c1"}, {From: "p2", To: "c2"}, {From: "p1", To: "c2"}}
	g := dag.New()
	for _, n := range nodes {
		_ = g.AddNode(dag.Node{ID: n.ID})
	}
	for _, e := range edges {
		_ = g.AddEdge(dag.Edge{From: e.From, To: e.To})
	}
	sizes := map[string]Node{}
	for _, n := range nodes {
		sizes[n.ID] = n
	}
	l := newLayering(g, sizes, DefaultConfig())
	l.g.SetRows(map[string]int{"c1": 1, "c2": 1})

	start := map[int][]string{0: {"p1", "p2"}, 1: {"c2", "c1"}}
	if c := dag.CountCrossings(g, start); c == 0 {
		t.Fatal("expected crossings in the seed order")
	}
	best := l.reduceCrossings(start)
	if c := dag.CountCrossings(g, best); c != 0 {
		t.Errorf("crossings after reduction = %d, want 0 (order %v)", c, best)
	}
}
