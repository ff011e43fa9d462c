// Package pkg provides the core libraries for Stemma family-tree layout.
//
// # Overview
//
// Stemma arranges a family tree generation by generation. A tree is a graph
// of households (a primary person plus spouses) joined by parent-to-child
// edges, each edge leaving from the union it descends from. The pkg
// directory is organized into these areas:
//
//  1. [family] - The data model and the editing operations
//  2. [layout] - Node geometry and the hierarchical layout engine
//  3. [render] - SVG drawing, Graphviz DOT and rasterization
//  4. [pipeline] - Orchestration (layout → render) with caching
//  5. [store] - Persistence of named trees
//
// # Architecture
//
// The typical data flow through Stemma:
//
//	Editor JSON / store
//	         ↓
//	    [family] package (households, edges, edits)
//	         ↓
//	    [layout] package (card sizes, ranks, positions)
//	         ↓
//	    [render] package (SVG, DOT, PNG, PDF)
//	         ↓
//	    files / HTTP responses
//
// # Quick Start
//
// Build a tree, lay it out and draw it:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/stemma/pkg/family"
//	    "github.com/matzehuels/stemma/pkg/layout"
//	    "github.com/matzehuels/stemma/pkg/render/svg"
//	)
//
//	// 1. Build the tree
//	t, _ := family.NewTree("Smith", family.Member{Name: "John Smith"})
//	t, _ = family.AddSpouse(t, t.Nodes[0].ID, family.Member{Name: "Mary Smith"})
//	t, _, _ = family.AddChild(t, t.Nodes[0].ID, family.SpouseAnchor(0), family.Member{Name: "Tom Smith"})
//
//	// 2. Compute layout
//	t, _ = layout.LayoutTree(context.Background(), t, layout.TB)
//
//	// 3. Render to SVG
//	doc := svg.RenderTree(t)
//
// # Main Packages
//
// ## Domain
//
// [family] - Households, members, anchors and edges in the editor's JSON
// format, plus pure editing operations that never modify their input.
//
// [layout] - Card sizes derived from the spouse count, anchor offsets and
// the [layout.Layout] engine. Drawers are pluggable: the native layered
// drawer ([layout/layered]) or Graphviz ([layout/dot]).
//
// [dag] - Insertion-ordered DAG and crossing counts shared by the layered
// drawer. [dag/transform] assigns layers and subdivides long edges.
//
// ## Output
//
// [render/svg] - Household cards and connectors drawn as SVG.
//
// [render/nodelink] - Graphviz DOT export and Graphviz rendering.
//
// [render] - SVG to PNG/PDF conversion through rsvg-convert, or headless
// Chrome with [render/chrome].
//
// ## Infrastructure
//
// [pipeline] - Complete layout → render pipeline used by CLI and server.
// Ensures consistent behavior across both entry points.
//
// [store] - Tree persistence: a JSON file, SQLite (gorm + goose) or MongoDB.
//
// [cache] - Layout and artifact cache with file, Redis and null backends.
//
// [httputil] - Cached HTTP fetching with retries, used to inline photos.
//
// [errors] - Error codes shared by every package and mapped to HTTP status.
//
// [observability] - Hooks for store and HTTP metrics.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Specific package
//	go test -run Example        # Examples only
//
// [family]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/family
// [layout]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/layout
// [layout/layered]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/layout/layered
// [layout/dot]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/layout/dot
// [dag]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/dag/transform
// [render]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/render
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/render/svg
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/render/nodelink
// [render/chrome]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/render/chrome
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/pipeline
// [store]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/stemma/pkg/observability
package pkg
