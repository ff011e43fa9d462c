package transform

import (
	"fmt"

	"github.com/matzehuels/stemma/pkg/dag"
)

// Subdivide breaks edges that span multiple rows into sequences of single-row
// edges connected by synthetic subdivider nodes.
//
// After Subdivide every edge connects nodes in consecutive rows
// (parent.Row + 1 == child.Row). For example, when a grandchild is also
// attached directly to a grandparent household:
//
//	Before: grandparents (row 0) → grandchild (row 2)
//	After:  grandparents → grandparents_sub_1 → grandchild
//
// Each subdivider keeps a MasterID linking back to the source of the long
// edge. The slot and port of the original edge stay on the first segment,
// where they still describe the attachment on the real source node; later
// segments leave their subdivider from its center.
//
// # Node IDs
//
// Subdivider nodes are assigned unique IDs of the form "master_sub_row" (e.g.,
// "grandparents_sub_1"). If a collision occurs, a numeric suffix is appended
// ("grandparents_sub_1__2"). All generated IDs are tracked to guarantee
// uniqueness.
//
// Subdivide returns the number of subdivider nodes it inserted.
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	added := 0

	var toRemove []dag.Edge
	var toAdd []dag.Edge
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		toRemove = append(toRemove, e)
		prevID := src.ID
		slot, port := e.Slot, e.Port
		for row := src.Row + 1; row < dst.Row; row++ {
			id := gen.next(src.ID, row)
			if err := g.AddNode(dag.Node{
				ID:       id,
				Row:      row,
				Kind:     dag.NodeKindSubdivider,
				MasterID: src.ID,
			}); err != nil {
				panic(err)
			}
			toAdd = append(toAdd, dag.Edge{From: prevID, To: id, Slot: slot, Port: port})
			prevID, slot, port = id, 0, 0
			added++
		}
		toAdd = append(toAdd, dag.Edge{From: prevID, To: dst.ID, Slot: slot, Port: port})
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
	for _, e := range toAdd {
		if err := g.AddEdge(e); err != nil {
			panic(err)
		}
	}
	return added
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s_sub_%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
