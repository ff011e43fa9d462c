// Package nodelink renders family trees as plain node-link diagrams.
//
// # Overview
//
// This package hands the household graph to Graphviz and lets it do the
// layout. Each household is a record with one field per member; an edge
// leaves from the field of the spouse (or primary) it descends from. The
// result ignores card geometry and stored positions, which makes it useful
// for checking a tree's structure.
//
// # Usage
//
//	dot := nodelink.TreeToDOT(tree, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
