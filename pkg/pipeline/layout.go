package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/stemma/pkg/cache"
	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
	"github.com/matzehuels/stemma/pkg/observability"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout lays out a tree without caching. Options must have been
// validated with ValidateForLayout.
func GenerateLayout(ctx context.Context, t family.Tree, opts Options) (family.Tree, error) {
	observability.Layout().OnLayoutStart(ctx, opts.Drawer, len(t.Nodes))
	start := time.Now()

	out, err := layout.LayoutTree(ctx, t, opts.LayoutDirection(),
		layout.WithDrawer(Drawers[opts.Drawer]),
		layout.WithSeparation(opts.Separation()),
		layout.WithLogger(opts.Logger),
	)
	observability.Layout().OnLayoutComplete(ctx, opts.Drawer, time.Since(start), err)
	return out, err
}

// TreeHash hashes the parts of a tree its layout depends on: household ids
// and members and the edges. Positions, sides and the tree's name are left
// out, so re-laying out a result hits the same cache entry.
func TreeHash(t family.Tree) (string, error) {
	nodes := make([]family.Household, len(t.Nodes))
	for i, h := range t.Nodes {
		h = h.Clone()
		h.Position = family.Point{}
		h.TargetSide, h.SourceSide = "", ""
		nodes[i] = h
	}
	data, err := json.Marshal(layout.Result{Nodes: nodes, Edges: t.Edges})
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// placement is the cached part of a laid-out household.
type placement struct {
	ID         string       `json:"id"`
	Position   family.Point `json:"position"`
	TargetSide family.Side  `json:"targetPosition,omitempty"`
	SourceSide family.Side  `json:"sourcePosition,omitempty"`
}

// applyLayout copies cached placements onto a clone of t. Households and
// edges otherwise come from t unchanged, so a cache hit returns the same
// values a fresh layout does.
func applyLayout(t family.Tree, data []byte) (family.Tree, bool) {
	var ps []placement
	if err := json.Unmarshal(data, &ps); err != nil || len(ps) != len(t.Nodes) {
		return family.Tree{}, false
	}
	out := t.Clone()
	for i, p := range ps {
		n := &out.Nodes[i]
		if n.ID != p.ID {
			return family.Tree{}, false
		}
		n.Position, n.TargetSide, n.SourceSide = p.Position, p.TargetSide, p.SourceSide
	}
	if out.Edges == nil {
		out.Edges = []family.Edge{}
	}
	return out, true
}

func marshalLayout(t family.Tree) ([]byte, error) {
	ps := make([]placement, len(t.Nodes))
	for i, h := range t.Nodes {
		ps[i] = placement{ID: h.ID, Position: h.Position, TargetSide: h.TargetSide, SourceSide: h.SourceSide}
	}
	return json.Marshal(ps)
}
