// Package dag provides an insertion-ordered directed acyclic graph used by
// the layered family-tree layout.
//
// # Overview
//
// Households are vertices and parent-to-child relationships are edges. The
// layout engine assigns every vertex a row (rank), subdivides edges that skip
// rows and then orders each row to keep lines from crossing. This package
// holds the graph structure those phases share.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "grandparents"})
//	g.AddNode(dag.Node{ID: "father"})
//	g.AddEdge(dag.Edge{From: "grandparents", To: "father"})
//
// Use [DAG.Validate] to reject cyclic input before layering.
//
// # Determinism
//
// Every query returns nodes in insertion order. Two graphs built from the
// same input in the same order produce identical layouts.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] use a Fenwick tree (binary
// indexed tree) to count inversions in O(E log V) time. Ordering heuristics
// call them after every sweep to decide whether to keep a new ordering.
//
// # Edge Ports
//
// An [Edge] records the offset of its attachment point on the source node.
// Children descending from the second spouse of a household carry a larger
// port than children of the first, so ordering can place them accordingly.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize access
// if multiple goroutines read or modify the same graph.
//
// # Related Packages
//
// The [transform] subpackage provides layer assignment and long-edge
// subdivision.
//
// [transform]: github.com/matzehuels/stemma/pkg/dag/transform
package dag
