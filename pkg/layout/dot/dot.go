// Package dot lays out family trees with Graphviz's dot engine.
//
// It implements [layout.Drawer] on top of go-graphviz, which runs Graphviz
// compiled to WebAssembly, so no system install is needed. Households
// become fixed-size boxes; edges are emitted in anchor order with
// ordering=out so dot keeps children of one household in that order.
// Anchor offsets are not used.
//
//	res, err := layout.Layout(ctx, nodes, edges, layout.TB, layout.WithDrawer(dot.New))
package dot

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
)

// Name identifies this drawer.
const Name = "graphviz"

// Graphviz measures lengths in inches and positions in points.
const pointsPerInch = 72.0

type node struct {
	id   string
	size layout.Size
}

type edge struct {
	from, to int
	slot     int
}

type drawer struct {
	nodes []node
	index map[string]int
	edges []edge
}

// New returns a Graphviz-backed drawer.
func New() layout.Drawer {
	return &drawer{index: map[string]int{}}
}

func (d *drawer) Name() string { return Name }

func (d *drawer) SetNode(id string, size layout.Size) {
	d.index[id] = len(d.nodes)
	d.nodes = append(d.nodes, node{id: id, size: size})
}

func (d *drawer) SetEdge(source, target string, port layout.Port) {
	from, ok1 := d.index[source]
	to, ok2 := d.index[target]
	if !ok1 || !ok2 {
		return
	}
	d.edges = append(d.edges, edge{from: from, to: to, slot: port.Slot})
}

func (d *drawer) Layout(ctx context.Context, dir layout.Direction, sep layout.Separation) (map[string]family.Point, error) {
	if len(d.nodes) == 0 {
		return map[string]family.Point{}, nil
	}
	src := d.DOT(dir, sep)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return d.centers(buf.Bytes())
}

// DOT returns the graph handed to Graphviz. Households are named n0, n1, …
// in registration order.
func (d *drawer) DOT(dir layout.Direction, sep layout.Separation) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(sep.RankSep))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(sep.NodeSep))
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n\n")

	for i, n := range d.nodes {
		fmt.Fprintf(&buf, "  n%d [width=%s, height=%s];\n", i, inches(n.size.Width), inches(n.size.Height))
	}
	buf.WriteString("\n")

	edges := slices.Clone(d.edges)
	slices.SortStableFunc(edges, func(a, b edge) int {
		return cmp.Or(cmp.Compare(a.from, b.from), cmp.Compare(a.slot, b.slot))
	})
	for _, e := range edges {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.from, e.to)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 4, 64)
}

var (
	bbRe   = regexp.MustCompile(`bb="([-0-9.e]+),([-0-9.e]+),([-0-9.e]+),([-0-9.e]+)"`)
	nodeRe = regexp.MustCompile(`(?m)^\s*n(\d+)\s+\[([^\]]*)\]`)
	posRe  = regexp.MustCompile(`pos="([-0-9.e]+),([-0-9.e]+)"`)
)

// centers reads node centers from Graphviz's positioned output, flips them
// into a y-down space and shifts the drawing so it starts at the origin.
func (d *drawer) centers(out []byte) (map[string]family.Point, error) {
	bb := bbRe.FindSubmatch(out)
	if bb == nil {
		return nil, fmt.Errorf("graphviz output has no bounding box")
	}
	top, err := strconv.ParseFloat(string(bb[4]), 64)
	if err != nil {
		return nil, fmt.Errorf("bounding box: %w", err)
	}

	pts := make(map[int]family.Point, len(d.nodes))
	for _, m := range nodeRe.FindAllSubmatch(out, -1) {
		i, err := strconv.Atoi(string(m[1]))
		if err != nil || i >= len(d.nodes) {
			continue
		}
		pos := posRe.FindSubmatch(m[2])
		if pos == nil {
			continue
		}
		x, errX := strconv.ParseFloat(string(pos[1]), 64)
		y, errY := strconv.ParseFloat(string(pos[2]), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("position of %q: %q", d.nodes[i].id, pos[0])
		}
		pts[i] = family.Point{X: x, Y: top - y}
	}

	minX, minY := 0.0, 0.0
	for i, n := range d.nodes {
		p, ok := pts[i]
		if !ok {
			return nil, fmt.Errorf("graphviz did not place %q", n.id)
		}
		lx, ly := p.X-n.size.Width/2, p.Y-n.size.Height/2
		if i == 0 || lx < minX {
			minX = lx
		}
		if i == 0 || ly < minY {
			minY = ly
		}
	}

	res := make(map[string]family.Point, len(d.nodes))
	for i, n := range d.nodes {
		p := pts[i]
		res[n.id] = family.Point{X: p.X - minX, Y: p.Y - minY}
	}
	return res, nil
}
