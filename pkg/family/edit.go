package family

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stemma/pkg/errors"
)

// DefaultRoot is the member a new tree starts with.
var DefaultRoot = Member{Name: "Root Member", Gender: Male}

// The edit operations below never modify their input: each returns a new
// Tree that shares no slices with the one passed in.

// NewTree returns a tree with a fresh id holding a single root household.
// A zero root member is replaced by [DefaultRoot].
func NewTree(name string, root Member) (Tree, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateTreeName(name); err != nil {
		return Tree{}, err
	}
	if root == (Member{}) {
		root = DefaultRoot
	}
	if err := root.Validate(true); err != nil {
		return Tree{}, err
	}
	now := time.Now().UTC()
	return Tree{
		ID:        uuid.NewString(),
		Name:      name,
		Nodes:     []Household{NewHousehold(uuid.NewString(), root)},
		Edges:     []Edge{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddRoot adds a disconnected household and returns its id.
func AddRoot(t Tree, m Member) (Tree, string, error) {
	if err := m.Validate(true); err != nil {
		return t, "", err
	}
	out := t.Clone()
	id := uuid.NewString()
	out.Nodes = append(out.Nodes, NewHousehold(id, m))
	return out, id, nil
}

// AddSpouse appends a spouse to a household. A household that reaches two
// spouses switches to the fan shape on the next layout.
func AddSpouse(t Tree, nodeID string, m Member) (Tree, error) {
	if err := m.Validate(false); err != nil {
		return t, err
	}
	i := t.nodeIndex(nodeID)
	if i < 0 {
		return t, errors.New(errors.ErrCodeNodeNotFound, "household %q not found", nodeID)
	}
	out := t.Clone()
	out.Nodes[i].Spouses = append(out.Nodes[i].Spouses, m)
	return out, nil
}

// AddChild adds a household for m and an edge to it from the given anchor of
// the parent household. An empty anchor means the primary line. It returns
// the new household's id.
func AddChild(t Tree, parentID string, anchor Anchor, m Member) (Tree, string, error) {
	if err := m.Validate(true); err != nil {
		return t, "", err
	}
	i := t.nodeIndex(parentID)
	if i < 0 {
		return t, "", errors.New(errors.ErrCodeNodeNotFound, "household %q not found", parentID)
	}
	anchor = anchor.OrPrimary()
	if !anchor.ValidFor(t.Nodes[i]) {
		return t, "", errors.New(errors.ErrCodeInvalidAnchor, "household %q has no anchor %q", parentID, anchor)
	}

	out := t.Clone()
	id := uuid.NewString()
	out.Nodes = append(out.Nodes, NewHousehold(id, m))
	out.Edges = append(out.Edges, newEdge(out, parentID, id, anchor))
	return out, id, nil
}

// Connect adds an edge from an anchor of source to target. It rejects
// unknown households, anchors the source does not have, and edges that
// would make a household its own ancestor.
func Connect(t Tree, source, target string, anchor Anchor) (Tree, string, error) {
	si := t.nodeIndex(source)
	if si < 0 {
		return t, "", errors.New(errors.ErrCodeNodeNotFound, "household %q not found", source)
	}
	if t.nodeIndex(target) < 0 {
		return t, "", errors.New(errors.ErrCodeNodeNotFound, "household %q not found", target)
	}
	anchor = anchor.OrPrimary()
	if !anchor.ValidFor(t.Nodes[si]) {
		return t, "", errors.New(errors.ErrCodeInvalidAnchor, "household %q has no anchor %q", source, anchor)
	}
	if t.wouldCycle(source, target) {
		return t, "", errors.New(errors.ErrCodeInvalidGraph, "connecting %q to %q would create a cycle", source, target)
	}
	out := t.Clone()
	e := newEdge(out, source, target, anchor)
	out.Edges = append(out.Edges, e)
	return out, e.ID, nil
}

// EditMember replaces the member ref selects.
func EditMember(t Tree, nodeID string, ref MemberRef, m Member) (Tree, error) {
	if err := m.Validate(ref.Primary); err != nil {
		return t, err
	}
	i := t.nodeIndex(nodeID)
	if i < 0 {
		return t, errors.New(errors.ErrCodeNodeNotFound, "household %q not found", nodeID)
	}
	if _, ok := t.Nodes[i].Member(ref); !ok {
		return t, errors.New(errors.ErrCodeNotFound, "household %q has no %s", nodeID, ref)
	}
	out := t.Clone()
	if ref.Primary {
		out.Nodes[i].Primary = m
	} else {
		out.Nodes[i].Spouses[ref.Spouse] = m
	}
	return out, nil
}

// DeleteMember removes a member.
//
// Deleting the primary removes the whole household together with every
// edge that touches it. Deleting a spouse removes only that spouse; edges
// from its anchor move to the primary line and edges from later spouses are
// renumbered so they keep pointing at the same person.
func DeleteMember(t Tree, nodeID string, ref MemberRef) (Tree, error) {
	i := t.nodeIndex(nodeID)
	if i < 0 {
		return t, errors.New(errors.ErrCodeNodeNotFound, "household %q not found", nodeID)
	}
	if _, ok := t.Nodes[i].Member(ref); !ok {
		return t, errors.New(errors.ErrCodeNotFound, "household %q has no %s", nodeID, ref)
	}

	out := t.Clone()
	if ref.Primary {
		out.Nodes = slices.Delete(out.Nodes, i, i+1)
		out.Edges = slices.DeleteFunc(out.Edges, func(e Edge) bool {
			return e.Source == nodeID || e.Target == nodeID
		})
		return out, nil
	}

	out.Nodes[i].Spouses = slices.Delete(out.Nodes[i].Spouses, ref.Spouse, ref.Spouse+1)
	for j, e := range out.Edges {
		if e.Source != nodeID {
			continue
		}
		k, ok := e.Anchor().SpouseIndex()
		switch {
		case !ok:
		case k == ref.Spouse:
			out.Edges[j].SourceAnchor = AnchorPrimary
		case k > ref.Spouse:
			out.Edges[j].SourceAnchor = SpouseAnchor(k - 1)
		}
	}
	return out, nil
}

// RemoveEdge deletes the edge with the given id. Unknown ids are ignored.
func RemoveEdge(t Tree, edgeID string) Tree {
	out := t.Clone()
	out.Edges = slices.DeleteFunc(out.Edges, func(e Edge) bool { return e.ID == edgeID })
	return out
}

// Rename changes the tree's display name.
func Rename(t Tree, name string) (Tree, error) {
	if err := errors.ValidateTreeName(name); err != nil {
		return t, err
	}
	out := t.Clone()
	out.Name = strings.TrimSpace(name)
	return out, nil
}

// newEdge builds an editor-styled edge with an id of the form
// "e{source}-{target}", suffixed when that id is taken.
func newEdge(t Tree, source, target string, anchor Anchor) Edge {
	base := fmt.Sprintf("e%s-%s", source, target)
	id := base
	for n := 2; slices.ContainsFunc(t.Edges, func(e Edge) bool { return e.ID == id }); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return Edge{
		ID:           id,
		Source:       source,
		Target:       target,
		SourceAnchor: anchor,
		Type:         EdgeType,
		Animated:     true,
		Style:        DefaultEdgeStyle(),
	}
}
