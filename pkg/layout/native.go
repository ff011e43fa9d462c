package layout

import (
	"context"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout/layered"
)

// NativeName identifies the built-in drawer.
const NativeName = "native"

type native struct {
	nodes []layered.Node
	sizes []Size
	edges []layered.Edge
}

// NewNative returns the built-in layered drawer. It is the default.
func NewNative() Drawer { return &native{} }

func (d *native) Name() string { return NativeName }

func (d *native) SetNode(id string, size Size) {
	d.nodes = append(d.nodes, layered.Node{ID: id})
	d.sizes = append(d.sizes, size)
}

func (d *native) SetEdge(source, target string, port Port) {
	d.edges = append(d.edges, layered.Edge{From: source, To: target, Slot: port.Slot, Port: port.Offset})
}

// Layout maps the page onto the layered drawing: TB spreads siblings along
// x and stacks ranks along y, LR swaps the two.
func (d *native) Layout(ctx context.Context, dir Direction, sep Separation) (map[string]family.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, s := range d.sizes {
		if dir == LR {
			d.nodes[i].Breadth, d.nodes[i].Depth = s.Height, s.Width
		} else {
			d.nodes[i].Breadth, d.nodes[i].Depth = s.Width, s.Height
		}
	}

	cfg := layered.DefaultConfig()
	cfg.RankSep, cfg.NodeSep = sep.RankSep, sep.NodeSep
	pos, err := layered.Place(d.nodes, d.edges, cfg)
	if err != nil {
		return nil, err
	}

	out := make(map[string]family.Point, len(pos))
	for id, p := range pos {
		if dir == LR {
			out[id] = family.Point{X: p.Depth, Y: p.Breadth}
		} else {
			out[id] = family.Point{X: p.Breadth, Y: p.Depth}
		}
	}
	return out, nil
}
