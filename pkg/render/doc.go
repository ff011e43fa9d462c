// Package render turns positioned family trees into exportable documents.
//
// # Overview
//
// The [svg] subpackage draws a laid-out tree as an SVG document on the
// editor's dark canvas. This package converts that SVG into raster and
// print formats through a [Rasterizer]:
//
//   - [RSVG] shells out to rsvg-convert (librsvg)
//   - the [chrome] subpackage drives headless Chrome through chromedp
//
//	doc := svg.Render(res.Nodes, res.Edges, svg.WithMargin(render.PDFMargin))
//	pdf, err := render.RSVG{}.PDF(ctx, doc)
//	png, err := render.RSVG{}.PNG(ctx, doc, render.PixelRatio(w, h))
//
// # Resolution
//
// [PixelRatio] scales PNG exports down as drawings grow, so very large
// trees stay within what image viewers and browsers can open.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders the bare household graph with
// Graphviz, useful for checking structure independently of layout.
//
// [svg]: github.com/matzehuels/stemma/pkg/render/svg
// [chrome]: github.com/matzehuels/stemma/pkg/render/chrome
// [nodelink]: github.com/matzehuels/stemma/pkg/render/nodelink
package render
