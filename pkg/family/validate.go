package family

import (
	stderrors "errors"

	"github.com/matzehuels/stemma/pkg/dag"
	"github.com/matzehuels/stemma/pkg/errors"
)

// Validate checks that the households and edges form a drawable family graph:
// every household has a unique non-empty id, every edge joins two distinct
// known households, and no chain of edges leads back to where it started.
//
// All violations are reported as [errors.ErrCodeInvalidGraph]. Anchors
// naming a spouse the household does not have are tolerated; layout treats
// them as the primary line.
func Validate(nodes []Household, edges []Edge) error {
	g := dag.New()
	for i, h := range nodes {
		if err := g.AddNode(dag.Node{ID: h.ID}); err != nil {
			switch {
			case stderrors.Is(err, dag.ErrInvalidNodeID):
				return errors.New(errors.ErrCodeInvalidGraph, "node %d has an empty id", i)
			case stderrors.Is(err, dag.ErrDuplicateNodeID):
				return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", h.ID)
			default:
				return errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %q", h.ID)
			}
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e.Source, To: e.Target}); err != nil {
			switch {
			case stderrors.Is(err, dag.ErrUnknownSourceNode):
				return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown source %q", e.ID, e.Source)
			case stderrors.Is(err, dag.ErrUnknownTargetNode):
				return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown target %q", e.ID, e.Target)
			case stderrors.Is(err, dag.ErrSelfLoop):
				return errors.New(errors.ErrCodeInvalidGraph, "edge %q connects %q to itself", e.ID, e.Source)
			default:
				return errors.Wrap(errors.ErrCodeInvalidGraph, err, "edge %q", e.ID)
			}
		}
	}
	if err := g.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "relationships must not form a cycle")
	}
	return nil
}

// Validate checks the tree's graph and every member.
func (t Tree) Validate() error {
	if err := errors.ValidateTreeName(t.Name); err != nil {
		return err
	}
	for _, h := range t.Nodes {
		if err := h.Primary.Validate(true); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMember, err, "node %q primary", h.ID)
		}
		for i, s := range h.Spouses {
			if err := s.Validate(false); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidMember, err, "node %q spouse %d", h.ID, i)
			}
		}
	}
	return Validate(t.Nodes, t.Edges)
}

// wouldCycle reports whether adding source→target closes a cycle, that is
// whether source is already reachable from target.
func (t Tree) wouldCycle(source, target string) bool {
	if source == target {
		return true
	}
	seen := map[string]bool{}
	stack := []string{target}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == source {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, t.Children(id)...)
	}
	return false
}
