package layout

import "github.com/matzehuels/stemma/pkg/family"

// Card and spacing constants, in pixels.
const (
	CardWidth  = 200.0 // width of one person card
	CardHeight = 120.0 // height of one person card
	InnerGap   = 20.0  // gap between spouse cards in a fan household

	SpacingX = 50.0  // minimum gap between neighbouring households of one generation
	SpacingY = 100.0 // gap between consecutive generations

	// FanHeightFactor scales CardHeight for fan households: the primary card,
	// the connecting stem and the spouse row.
	FanHeightFactor = 2.5
)

// Size is a bounding box.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Resolve returns the bounding box of a household.
//
// With zero or one spouse the household is one card holding 1+n people side
// by side. With n ≥ 2 spouses it is a fan: a row of n spouse cards separated
// by InnerGap, under a taller band that holds the primary.
//
// Resolve is total and pure. Sizes are recomputed on every layout, never
// stored on the household.
func Resolve(h family.Household) Size {
	n := float64(h.SpouseCount())
	if h.Shape() == family.ShapeFan {
		return Size{
			Width:  n*CardWidth + (n-1)*InnerGap,
			Height: FanHeightFactor * CardHeight,
		}
	}
	return Size{Width: (1 + n) * CardWidth, Height: CardHeight}
}

// AnchorOffset returns where an anchor sits relative to the household's
// center, measured along the breadth axis of dir (x for TB, y for LR).
//
// Unified households have a single outlet under their center for every
// anchor. In a fan household flowing TB, spouse i's outlet is under the
// center of spouse card i and the primary's under the household center;
// flowing LR, spouse outlets are level with the spouse row and the
// primary's with the primary card. Anchors the household does not have
// are treated as the primary.
func AnchorOffset(h family.Household, anchor family.Anchor, dir Direction) float64 {
	if h.Shape() != family.ShapeFan {
		return 0
	}
	size := Resolve(h)
	i, ok := anchor.SpouseIndex()
	isSpouse := ok && i < h.SpouseCount()

	if dir == LR {
		if isSpouse {
			return size.Height/2 - CardHeight/2
		}
		return -size.Height/2 + CardHeight/2
	}
	if !isSpouse {
		return 0
	}
	return -size.Width/2 + float64(i)*(CardWidth+InnerGap) + CardWidth/2
}

// AnchorSlot returns the ordinal of an anchor among the household's
// outlets: 0 for the primary line, i+1 for spouse i. Unknown anchors map
// to 0 like the primary.
func AnchorSlot(h family.Household, anchor family.Anchor) int {
	if i, ok := anchor.SpouseIndex(); ok && i < h.SpouseCount() {
		return i + 1
	}
	return 0
}

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Bounds returns the box enclosing every household at its current position.
// It is the zero Rect for no households.
func Bounds(nodes []family.Household) Rect {
	if len(nodes) == 0 {
		return Rect{}
	}
	minX, minY := nodes[0].Position.X, nodes[0].Position.Y
	maxX, maxY := minX, minY
	for _, h := range nodes {
		s := Resolve(h)
		minX = min(minX, h.Position.X)
		minY = min(minY, h.Position.Y)
		maxX = max(maxX, h.Position.X+s.Width)
		maxY = max(maxY, h.Position.Y+s.Height)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
