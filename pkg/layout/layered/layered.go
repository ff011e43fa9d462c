package layered

import (
	"fmt"

	"github.com/matzehuels/stemma/pkg/dag"
	"github.com/matzehuels/stemma/pkg/dag/transform"
)

// Node is a box to place. Breadth is its extent along the rank (sibling)
// axis and Depth its extent along the flow axis.
type Node struct {
	ID      string
	Breadth float64
	Depth   float64
}

// Edge is a directed arc from a parent box to a child box.
//
// Slot orders the attachment points of one parent: children on a lower slot
// are placed before children on a higher slot. Port is the attachment point's
// offset from the parent's center along the breadth axis.
type Edge struct {
	From string
	To   string
	Slot int
	Port float64
}

// Position is the center of a placed box.
type Position struct {
	Breadth float64
	Depth   float64
}

// Config controls spacing and effort.
type Config struct {
	RankSep float64 // gap between consecutive ranks
	NodeSep float64 // gap between neighbouring boxes in a rank
	EdgeSep float64 // gap reserved beside a line that passes through a rank

	OrderSweeps int // crossing-reduction sweeps
	AlignSweeps int // coordinate alignment sweeps
}

// DefaultConfig returns the spacing used for family trees.
func DefaultConfig() Config {
	return Config{
		RankSep:     100,
		NodeSep:     50,
		EdgeSep:     10,
		OrderSweeps: 24,
		AlignSweeps: 8,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.OrderSweeps <= 0 {
		c.OrderSweeps = d.OrderSweeps
	}
	if c.AlignSweeps <= 0 {
		c.AlignSweeps = d.AlignSweeps
	}
	if c.EdgeSep <= 0 {
		c.EdgeSep = d.EdgeSep
	}
	return c
}

// Place computes the center of every node.
//
// The graph must be acyclic with unique non-empty IDs and no self-loops;
// violations are reported with the [dag] sentinel errors. Positions are
// normalized so the smallest box edge on each axis is at 0. The result
// depends only on the input values and their order.
func Place(nodes []Node, edges []Edge, cfg Config) (map[string]Position, error) {
	cfg = cfg.withDefaults()
	if len(nodes) == 0 {
		return map[string]Position{}, nil
	}

	g := dag.New()
	sizes := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if err := g.AddNode(dag.Node{ID: n.ID}); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		sizes[n.ID] = n
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To, Slot: e.Slot, Port: e.Port}); err != nil {
			return nil, fmt.Errorf("edge %s→%s: %w", e.From, e.To, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	transform.AssignLayers(g)
	transform.Subdivide(g)

	l := newLayering(g, sizes, cfg)
	orders := l.reduceCrossings(l.initialOrder())
	breadth := l.assignBreadth(orders)
	depth := l.assignDepth()

	out := make(map[string]Position, len(nodes))
	minB, minD := 0.0, 0.0
	for i, n := range nodes {
		p := Position{Breadth: breadth[n.ID], Depth: depth[n.ID]}
		out[n.ID] = p
		lowB, lowD := p.Breadth-n.Breadth/2, p.Depth-n.Depth/2
		if i == 0 || lowB < minB {
			minB = lowB
		}
		if i == 0 || lowD < minD {
			minD = lowD
		}
	}
	for id, p := range out {
		out[id] = Position{Breadth: p.Breadth - minB, Depth: p.Depth - minD}
	}
	return out, nil
}

// Ranks returns the rank each node is assigned by [Place], without placing
// anything. Invalid graphs yield the same errors as Place.
func Ranks(nodes []Node, edges []Edge) (map[string]int, error) {
	g := dag.New()
	for _, n := range nodes {
		if err := g.AddNode(dag.Node{ID: n.ID}); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To}); err != nil {
			return nil, fmt.Errorf("edge %s→%s: %w", e.From, e.To, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	transform.AssignLayers(g)
	ranks := make(map[string]int, len(nodes))
	for _, n := range g.Nodes() {
		ranks[n.ID] = n.Row
	}
	return ranks, nil
}

// layering holds the subdivided graph with adjacency indexed for the
// ordering and coordinate phases.
type layering struct {
	g     *dag.DAG
	sizes map[string]Node
	cfg   Config
	out   map[string][]dag.Edge
	in    map[string][]dag.Edge
}

func newLayering(g *dag.DAG, sizes map[string]Node, cfg Config) *layering {
	l := &layering{
		g:     g,
		sizes: sizes,
		cfg:   cfg,
		out:   make(map[string][]dag.Edge),
		in:    make(map[string][]dag.Edge),
	}
	for _, e := range g.Edges() {
		l.out[e.From] = append(l.out[e.From], e)
		l.in[e.To] = append(l.in[e.To], e)
	}
	return l
}

func (l *layering) isDummy(id string) bool {
	n, ok := l.g.Node(id)
	return ok && n.IsSubdivider()
}

// breadthOf returns the node's extent along the rank axis; subdividers are
// lines and take no room beyond their lane.
func (l *layering) breadthOf(id string) float64 {
	if l.isDummy(id) {
		return 0
	}
	return l.sizes[id].Breadth
}

func (l *layering) depthOf(id string) float64 {
	if l.isDummy(id) {
		return 0
	}
	return l.sizes[id].Depth
}

// halfGap is the share of inter-box spacing a node claims on each side.
func (l *layering) halfGap(id string) float64 {
	if l.isDummy(id) {
		return l.cfg.EdgeSep / 2
	}
	return l.cfg.NodeSep / 2
}

// separation is the minimum center distance between two neighbours in a rank.
func (l *layering) separation(left, right string) float64 {
	return l.breadthOf(left)/2 + l.halfGap(left) + l.halfGap(right) + l.breadthOf(right)/2
}

// assignDepth centers every rank inside a band as thick as its deepest box.
func (l *layering) assignDepth() map[string]float64 {
	depth := make(map[string]float64, l.g.NodeCount())
	start := 0.0
	for _, r := range l.g.RowIDs() {
		thickness := 0.0
		for _, n := range l.g.NodesInRow(r) {
			thickness = max(thickness, l.depthOf(n.ID))
		}
		for _, n := range l.g.NodesInRow(r) {
			depth[n.ID] = start + thickness/2
		}
		start += thickness + l.cfg.RankSep
	}
	return depth
}
