package layered

import (
	"cmp"
	"slices"

	"github.com/matzehuels/stemma/pkg/dag"
)

// initialOrder seeds each rank by a depth-first walk from the roots in input
// order, visiting a node's children by slot. Siblings end up adjacent and in
// the order of the spouse they descend from.
func (l *layering) initialOrder() map[int][]string {
	orders := make(map[int][]string, l.g.RowCount())
	visited := make(map[string]bool, l.g.NodeCount())

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		n, _ := l.g.Node(id)
		orders[n.Row] = append(orders[n.Row], id)

		out := slices.Clone(l.out[id])
		slices.SortStableFunc(out, func(a, b dag.Edge) int { return cmp.Compare(a.Slot, b.Slot) })
		for _, e := range out {
			visit(e.To)
		}
	}

	for _, n := range l.g.Sources() {
		visit(n.ID)
	}
	return orders
}

// reduceCrossings runs alternating barycenter sweeps and keeps the ordering
// with the fewest crossings. It stops early once a sweep pair brings no
// improvement or the drawing is crossing-free.
func (l *layering) reduceCrossings(orders map[int][]string) map[int][]string {
	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(l.g, best)
	cur := cloneOrders(orders)
	maxRow := l.g.MaxRow()

	stale := 0
	for i := 0; i < l.cfg.OrderSweeps && bestCrossings > 0 && stale < 4; i++ {
		if i%2 == 0 {
			for r := 1; r <= maxRow; r++ {
				cur[r] = l.sortByBarycenter(cur[r], cur[r-1], true)
			}
		} else {
			for r := maxRow - 1; r >= 0; r-- {
				cur[r] = l.sortByBarycenter(cur[r], cur[r+1], false)
			}
		}

		if c := dag.CountCrossings(l.g, cur); c < bestCrossings {
			best, bestCrossings = cloneOrders(cur), c
			stale = 0
		} else {
			stale++
		}
	}
	return best
}

// sortByBarycenter reorders row by the mean position of each node's
// neighbours in the fixed row. Nodes without neighbours there keep their
// index; the others fill the remaining slots in barycenter order. Ties fall
// back to the mean slot of the connecting edges and then to the current
// order.
func (l *layering) sortByBarycenter(row, fixed []string, parents bool) []string {
	pos := dag.PosMap(fixed)

	type entry struct {
		id    string
		index int
		bary  float64
		slot  float64
	}
	var sortable, pinned []entry
	for i, id := range row {
		var edges []dag.Edge
		if parents {
			edges = l.in[id]
		} else {
			edges = l.out[id]
		}

		sum, slots, count := 0.0, 0.0, 0
		for _, e := range edges {
			other := e.To
			if parents {
				other = e.From
			}
			if p, ok := pos[other]; ok {
				sum += float64(p)
				slots += float64(e.Slot)
				count++
			}
		}
		if count == 0 {
			pinned = append(pinned, entry{id: id, index: i})
			continue
		}
		sortable = append(sortable, entry{
			id:    id,
			index: i,
			bary:  sum / float64(count),
			slot:  slots / float64(count),
		})
	}

	slices.SortStableFunc(sortable, func(a, b entry) int {
		if c := cmp.Compare(a.bary, b.bary); c != 0 {
			return c
		}
		if c := cmp.Compare(a.slot, b.slot); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	result := make([]string, 0, len(row))
	next := 0
	for _, p := range pinned {
		for len(result) < p.index && next < len(sortable) {
			result = append(result, sortable[next].id)
			next++
		}
		result = append(result, p.id)
	}
	for ; next < len(sortable); next++ {
		result = append(result, sortable[next].id)
	}
	return result
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
