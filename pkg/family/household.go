package family

import (
	"strconv"
	"strings"
)

// NodeType is the editor node type every household carries.
const NodeType = "custom"

// Point is a position on the canvas, in pixels, y growing downward.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Side names the side of a card a connection attaches to.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Shape is the visual arrangement of a household card.
type Shape int

const (
	// ShapeUnified draws the primary and at most one spouse side by side on
	// one card.
	ShapeUnified Shape = iota
	// ShapeFan draws the primary above a row of two or more spouse cards.
	ShapeFan
)

func (s Shape) String() string {
	if s == ShapeFan {
		return "fan"
	}
	return "unified"
}

// Anchor names the union an edge descends from: the primary line or one
// spouse's line.
type Anchor string

// AnchorPrimary is the default anchor.
const AnchorPrimary Anchor = "primary"

const spousePrefix = "spouse-"

// SpouseAnchor returns the anchor of the i-th spouse.
func SpouseAnchor(i int) Anchor { return Anchor(spousePrefix + strconv.Itoa(i)) }

// SpouseIndex returns the spouse index of a "spouse-N" anchor.
func (a Anchor) SpouseIndex() (int, bool) {
	rest, ok := strings.CutPrefix(string(a), spousePrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 || strconv.Itoa(i) != rest {
		return 0, false
	}
	return i, true
}

// OrPrimary returns a, or AnchorPrimary when a is empty.
func (a Anchor) OrPrimary() Anchor {
	if a == "" {
		return AnchorPrimary
	}
	return a
}

// ValidFor reports whether the anchor exists on h.
func (a Anchor) ValidFor(h Household) bool {
	if a.OrPrimary() == AnchorPrimary {
		return true
	}
	i, ok := a.SpouseIndex()
	return ok && i < len(h.Spouses)
}

// Household is a node of the family graph: a primary person plus zero or
// more spouses. Its dimensions are never stored; see the layout package.
//
// Position, TargetSide and SourceSide are layout outputs. They are carried
// for the editor and exporters and are never read by the layout engine.
type Household struct {
	ID      string   `json:"id" bson:"id"`
	Type    string   `json:"type,omitempty" bson:"type,omitempty"`
	Primary Member   `json:"-" bson:"primary"`
	Spouses []Member `json:"-" bson:"spouses,omitempty"`

	Position   Point `json:"position" bson:"position"`
	TargetSide Side  `json:"targetPosition,omitempty" bson:"targetSide,omitempty"`
	SourceSide Side  `json:"sourcePosition,omitempty" bson:"sourceSide,omitempty"`
}

// NewHousehold returns a household with one primary member and no spouses.
func NewHousehold(id string, primary Member) Household {
	return Household{ID: id, Type: NodeType, Primary: primary}
}

// SpouseCount returns the number of spouses.
func (h Household) SpouseCount() int { return len(h.Spouses) }

// Shape returns the card arrangement implied by the spouse count.
func (h Household) Shape() Shape {
	if len(h.Spouses) > 1 {
		return ShapeFan
	}
	return ShapeUnified
}

// Anchors lists every anchor of the household in breadth order: the primary
// line first, then each spouse.
func (h Household) Anchors() []Anchor {
	out := make([]Anchor, 0, 1+len(h.Spouses))
	out = append(out, AnchorPrimary)
	for i := range h.Spouses {
		out = append(out, SpouseAnchor(i))
	}
	return out
}

// Member returns the member a ref selects.
func (h Household) Member(ref MemberRef) (Member, bool) {
	if ref.Primary {
		return h.Primary, true
	}
	if ref.Spouse < 0 || ref.Spouse >= len(h.Spouses) {
		return Member{}, false
	}
	return h.Spouses[ref.Spouse], true
}

// Members returns the primary followed by the spouses.
func (h Household) Members() []Member {
	out := make([]Member, 0, 1+len(h.Spouses))
	out = append(out, h.Primary)
	return append(out, h.Spouses...)
}

// Clone returns a deep copy.
func (h Household) Clone() Household {
	c := h
	if h.Spouses != nil {
		c.Spouses = append([]Member(nil), h.Spouses...)
	}
	return c
}
