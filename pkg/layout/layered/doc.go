// Package layered places boxes of varying size on a layered (Sugiyama-style)
// drawing of a directed acyclic graph.
//
// The algorithm works on an abstract drawing where ranks stack along a depth
// axis and siblings spread along a breadth axis. Callers map the axes onto
// the page: a top-to-bottom family tree uses breadth as x, a left-to-right
// one uses breadth as y.
//
// # Phases
//
//  1. Ranking: longest path from the roots ([transform.AssignLayers]).
//  2. Subdivision: edges spanning several ranks become chains through
//     zero-size subdivider nodes ([transform.Subdivide]).
//  3. Ordering: a depth-first seed from the roots, then alternating
//     barycenter sweeps. A sweep result is kept only if it lowers the
//     crossing count.
//  4. Breadth coordinates: alternating sweeps fit each rank to its
//     neighbours with weighted isotonic regression under minimum separation
//     constraints, so boxes never overlap.
//  5. Depth coordinates: each rank is a band as thick as its deepest box,
//     bands are separated by RankSep, and boxes are centered in their band.
//
// Edges carry a Slot and a Port: the slot orders children of one parent, the
// port offsets where a child wants to sit relative to the parent's center.
// A household's second spouse has a higher slot and a port to the right of
// the first spouse's.
//
// The package has no state; [Place] is safe to call from multiple goroutines.
//
// [transform.AssignLayers]: github.com/matzehuels/stemma/pkg/dag/transform
// [transform.Subdivide]: github.com/matzehuels/stemma/pkg/dag/transform
package layered
