// Package transform provides the graph transformations that prepare a family
// DAG for layered placement.
//
// # Layer Assignment
//
// [AssignLayers] gives every node a row equal to the length of the longest
// path from any root. Parents therefore sit strictly above their children,
// and households that marry into the tree from separate lineages land in
// the generation below the deepest of their parents.
//
// # Edge Subdivision
//
// [Subdivide] breaks long edges (spanning multiple rows) into chains of
// single-row hops by inserting subdivider nodes. Ordering and coordinate
// assignment then only ever look at consecutive rows, and the subdividers
// reserve a lane for the long line so it does not run through a card.
//
// Apply them in that order: Subdivide reads the rows AssignLayers writes.
package transform
