package family

import (
	"maps"
	"slices"
	"time"
)

// Edge styling the editor applies to new parent→child connections.
const (
	EdgeType        = "custom"
	EdgeStroke      = "#fff"
	EdgeStrokeWidth = 2
)

// Edge is a parent→child relationship leaving from one anchor of the source
// household. Type, Animated and Style are opaque to layout and preserved.
type Edge struct {
	ID           string         `json:"id" bson:"id"`
	Source       string         `json:"source" bson:"source"`
	Target       string         `json:"target" bson:"target"`
	SourceAnchor Anchor         `json:"sourceHandle,omitempty" bson:"sourceAnchor,omitempty"`
	Type         string         `json:"type,omitempty" bson:"type,omitempty"`
	Animated     bool           `json:"animated,omitempty" bson:"animated,omitempty"`
	Style        map[string]any `json:"style,omitempty" bson:"style,omitempty"`
}

// Anchor returns the edge's source anchor, defaulting to the primary line.
func (e Edge) Anchor() Anchor { return e.SourceAnchor.OrPrimary() }

// Clone returns a copy with its own Style map.
func (e Edge) Clone() Edge {
	c := e
	if e.Style != nil {
		c.Style = maps.Clone(e.Style)
	}
	return c
}

// DefaultEdgeStyle is the stroke the editor draws new edges with.
func DefaultEdgeStyle() map[string]any {
	return map[string]any{"stroke": EdgeStroke, "strokeWidth": EdgeStrokeWidth}
}

// Tree is a named family tree: the unit of persistence.
type Tree struct {
	ID        string      `json:"id" bson:"_id"`
	Name      string      `json:"name" bson:"name"`
	Nodes     []Household `json:"nodes" bson:"nodes"`
	Edges     []Edge      `json:"edges" bson:"edges"`
	CreatedAt time.Time   `json:"createdAt,omitzero" bson:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt,omitzero" bson:"updatedAt"`
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	c := t
	c.Nodes = make([]Household, len(t.Nodes))
	for i, h := range t.Nodes {
		c.Nodes[i] = h.Clone()
	}
	c.Edges = make([]Edge, len(t.Edges))
	for i, e := range t.Edges {
		c.Edges[i] = e.Clone()
	}
	return c
}

// Node returns the household with the given id.
func (t Tree) Node(id string) (Household, bool) {
	i := t.nodeIndex(id)
	if i < 0 {
		return Household{}, false
	}
	return t.Nodes[i], true
}

func (t Tree) nodeIndex(id string) int {
	return slices.IndexFunc(t.Nodes, func(h Household) bool { return h.ID == id })
}

// Children returns the ids of households with an edge from id, in edge order.
func (t Tree) Children(id string) []string {
	var out []string
	for _, e := range t.Edges {
		if e.Source == id {
			out = append(out, e.Target)
		}
	}
	return out
}

// Roots returns households no edge points to, in node order.
func (t Tree) Roots() []Household {
	hasParent := make(map[string]bool, len(t.Edges))
	for _, e := range t.Edges {
		hasParent[e.Target] = true
	}
	var out []Household
	for _, h := range t.Nodes {
		if !hasParent[h.ID] {
			out = append(out, h)
		}
	}
	return out
}

// MemberCount counts every person in the tree.
func (t Tree) MemberCount() int {
	n := 0
	for _, h := range t.Nodes {
		n += 1 + len(h.Spouses)
	}
	return n
}
