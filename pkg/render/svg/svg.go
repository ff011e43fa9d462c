// Package svg draws laid-out family trees as SVG documents.
//
// The drawing matches the editor: a dark canvas, one card per household
// tinted by gender, and connections drawn as smooth steps leaving from the
// anchor they descend from.
package svg

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
)

// Palette.
const (
	Background  = "#0f1115"
	CardFill    = "#1a1d24"
	MaleColor   = "#3b82f6"
	FemaleColor = "#ec4899"
	HeartColor  = "#ff4b4b"
	TextColor   = "#f3f4f6"
	MutedColor  = "#9ca3af"
	StemColor   = "#4b5563"
)

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	margin     float64
	dir        layout.Direction
	background bool
	title      string
}

// WithMargin pads the drawing on every side.
func WithMargin(px float64) Option {
	return func(r *renderer) { r.margin = max(0, px) }
}

// WithDirection sets the flow edges are routed for. By default it is read
// from the households' SourceSide.
func WithDirection(d layout.Direction) Option {
	return func(r *renderer) { r.dir = d }
}

// WithTransparentBackground omits the canvas fill.
func WithTransparentBackground() Option {
	return func(r *renderer) { r.background = false }
}

// WithTitle sets the document title.
func WithTitle(s string) Option {
	return func(r *renderer) { r.title = s }
}

// Render draws positioned households and their edges. Households are drawn
// at their Position; the viewBox is the bounding box plus margin.
func Render(nodes []family.Household, edges []family.Edge, opts ...Option) []byte {
	r := renderer{background: true, dir: inferDirection(nodes)}
	for _, opt := range opts {
		opt(&r)
	}

	bounds := layout.Bounds(nodes)
	w, h := bounds.Width+2*r.margin, bounds.Height+2*r.margin
	offX, offY := r.margin-bounds.X, r.margin-bounds.Y

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(r.title))
	}
	renderDefs(&buf)
	if r.background {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", Background)
	}
	fmt.Fprintf(&buf, `  <g transform="translate(%.1f,%.1f)">`+"\n", offX, offY)

	byID := make(map[string]family.Household, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	buf.WriteString(`  <g class="edges">` + "\n")
	for _, e := range edges {
		src, ok1 := byID[e.Source]
		dst, ok2 := byID[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		renderEdge(&buf, e, src, dst, r.dir)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="households">` + "\n")
	for _, n := range nodes {
		renderHousehold(&buf, n)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

// RenderTree draws a laid-out tree titled with its name.
func RenderTree(t family.Tree, opts ...Option) []byte {
	return Render(t.Nodes, t.Edges, append([]Option{WithTitle(t.Name)}, opts...)...)
}

func inferDirection(nodes []family.Household) layout.Direction {
	for _, n := range nodes {
		if n.SourceSide == family.SideRight {
			return layout.LR
		}
		if n.SourceSide == family.SideBottom {
			return layout.TB
		}
	}
	return layout.TB
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <filter id="card-shadow" x="-10%" y="-10%" width="120%" height="130%">` + "\n")
	buf.WriteString(`      <feDropShadow dx="0" dy="2" stdDeviation="3" flood-color="#000" flood-opacity="0.45"/>` + "\n")
	buf.WriteString("    </filter>\n")
	buf.WriteString("  </defs>\n")
}
