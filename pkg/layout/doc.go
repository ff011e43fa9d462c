// Package layout computes card sizes and positions for a family tree.
//
// # Geometry
//
// [Resolve] derives a household's bounding box from its spouse count alone.
// Zero or one spouse gives a single card holding everybody side by side;
// two or more give a fan, with the primary above a row of spouse cards:
//
//	spouses  shape    width            height
//	0        unified  200              120
//	1        unified  400              120
//	n ≥ 2    fan      200n + 20(n-1)   300
//
// # Layout
//
// [Layout] places households on a layered drawing: every parent sits in an
// earlier generation than its children, generations are [SpacingY] apart
// and neighbours within one are at least [SpacingX] apart. Edges leave from
// a specific anchor of their source household (the primary line or one
// spouse), and children of one anchor are kept together in anchor order.
//
// Positions are top-left corners in a y-down pixel space. The drawing
// flows top to bottom for [TB] or left to right for [LR]; each household's
// TargetSide and SourceSide are set to match.
//
// Placement is delegated to a [Drawer]. The default, [NewNative], runs the
// algorithm in [layered]; the graphviz subpackage offers Graphviz's dot
// engine as an alternative.
//
//	res, err := layout.Layout(ctx, tree.Nodes, tree.Edges, layout.TB)
//
// [layered]: github.com/matzehuels/stemma/pkg/layout/layered
package layout
