package layout

import (
	"context"

	"github.com/matzehuels/stemma/pkg/family"
)

// Separation is the spacing a Drawer keeps between boxes.
type Separation struct {
	RankSep float64 `json:"rank_sep"` // between consecutive generations
	NodeSep float64 `json:"node_sep"` // between neighbours of one generation
}

// DefaultSeparation returns SpacingY between ranks and SpacingX within one.
func DefaultSeparation() Separation {
	return Separation{RankSep: SpacingY, NodeSep: SpacingX}
}

// Port describes where an edge leaves its source: Slot orders the outlets
// of one household and Offset is the outlet's distance from the source
// center along the breadth axis. Drawers may ignore either.
type Port struct {
	Slot   int
	Offset float64
}

// Drawer is a layered placement algorithm. The engine registers every
// household and edge, runs Layout once and reads back box centers.
//
// A Drawer is used for a single layout and need not be reusable or safe
// for concurrent use.
type Drawer interface {
	SetNode(id string, size Size)
	SetEdge(source, target string, port Port)
	// Layout returns the center of every registered node. Ranks follow
	// dir; sep sets the minimum gaps.
	Layout(ctx context.Context, dir Direction, sep Separation) (map[string]family.Point, error)
	// Name identifies the algorithm in logs and cache keys.
	Name() string
}

// DrawerFactory creates a fresh Drawer for one layout.
type DrawerFactory func() Drawer
