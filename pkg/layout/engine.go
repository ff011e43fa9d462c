package layout

import (
	"context"
	"time"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
)

// Result is a positioned copy of the input graph.
type Result struct {
	Nodes []family.Household `json:"nodes"`
	Edges []family.Edge      `json:"edges"`
}

// Layout positions every household on a layered drawing flowing in dir.
//
// Households come back in input order with the same ids and data, a
// top-left Position and the TargetSide/SourceSide for dir. Edges are
// returned unchanged. Neither input slice is modified.
//
// Graphs with empty or duplicate ids, edges to unknown households,
// self-loops or cycles are rejected with [errors.ErrCodeInvalidGraph].
// Existing positions are ignored, so laying out a result again yields the
// same positions.
func Layout(ctx context.Context, nodes []family.Household, edges []family.Edge, dir Direction, opts ...Option) (Result, error) {
	if !dir.Valid() {
		return Result{}, errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q (want TB or LR)", dir)
	}
	if err := family.Validate(nodes, edges); err != nil {
		return Result{}, err
	}
	cfg := newConfig(opts)

	out := Result{
		Nodes: make([]family.Household, len(nodes)),
		Edges: make([]family.Edge, len(edges)),
	}
	for i, e := range edges {
		out.Edges[i] = e.Clone()
	}
	if len(nodes) == 0 {
		return out, nil
	}

	start := time.Now()
	drawer := cfg.drawer()
	sizes := make(map[string]Size, len(nodes))
	byID := make(map[string]family.Household, len(nodes))
	for _, h := range nodes {
		s := Resolve(h)
		sizes[h.ID] = s
		byID[h.ID] = h
		drawer.SetNode(h.ID, s)
	}
	for _, e := range edges {
		src := byID[e.Source]
		drawer.SetEdge(e.Source, e.Target, Port{
			Slot:   AnchorSlot(src, e.Anchor()),
			Offset: AnchorOffset(src, e.Anchor(), dir),
		})
	}

	centers, err := drawer.Layout(ctx, dir, cfg.sep)
	if err != nil {
		if errors.GetCode(err) != "" || ctx.Err() != nil {
			return Result{}, err
		}
		return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "%s layout", drawer.Name())
	}

	target, source := dir.Sides()
	for i, h := range nodes {
		c, ok := centers[h.ID]
		if !ok {
			return Result{}, errors.New(errors.ErrCodeInternal, "%s layout did not place %q", drawer.Name(), h.ID)
		}
		s := sizes[h.ID]
		n := h.Clone()
		n.Position = family.Point{X: c.X - s.Width/2, Y: c.Y - s.Height/2}
		n.TargetSide, n.SourceSide = target, source
		out.Nodes[i] = n
	}

	if cfg.logger != nil {
		cfg.logger.Debug("layout", "drawer", drawer.Name(), "direction", dir,
			"nodes", len(nodes), "edges", len(edges), "duration", time.Since(start))
	}
	return out, nil
}

// LayoutTree lays out a tree and returns a copy with positioned households.
func LayoutTree(ctx context.Context, t family.Tree, dir Direction, opts ...Option) (family.Tree, error) {
	res, err := Layout(ctx, t.Nodes, t.Edges, dir, opts...)
	if err != nil {
		return family.Tree{}, err
	}
	out := t
	out.Nodes, out.Edges = res.Nodes, res.Edges
	return out, nil
}
