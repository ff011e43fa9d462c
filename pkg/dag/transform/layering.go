package transform

import "github.com/matzehuels/stemma/pkg/dag"

// AssignLayers assigns nodes to rows (ranks) based on their depth in the graph.
//
// AssignLayers uses a longest-path algorithm via topological sort (Kahn's
// algorithm) to compute row assignments. Each node is placed at one plus the
// maximum row of any of its parents, ensuring that:
//   - Source nodes (no incoming edges) are at row 0
//   - All parents are strictly above their children
//   - A child is never drawn beside a parent in the same generation
//
// Existing row assignments in the DAG are overwritten. The queue is seeded
// and extended in insertion order, so the result does not depend on map
// iteration.
//
// # Cycles
//
// AssignLayers assumes the graph is acyclic. Nodes in a cycle never reach
// zero in-degree and keep row 0. Call [dag.DAG.Validate] first.
//
// # Performance
//
// Time complexity is O(V + E). Space complexity is O(V).
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		rows[n.ID] = 0
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRows(rows)
}
