package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds nickname, gender and child index to each member.
	// When false, only names are shown.
	Detailed bool
	// LeftToRight lays generations out left to right instead of top down.
	LeftToRight bool
}

// ToDOT converts households and edges to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Every household is a record with one field per member. Edges leave from
// the field of the member whose anchor they name, so children of different
// spouses hang from different fields.
func ToDOT(nodes []family.Household, edges []family.Edge, opts Options) string {
	rankdir := "TB"
	if opts.LeftToRight {
		rankdir = "LR"
	}
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	known := make(map[string]family.Household, len(nodes))
	for _, n := range nodes {
		known[n.ID] = n
		fmt.Fprintf(&buf, "  %q [label=%s];\n", n.ID, quote(fmtLabel(n, opts)))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		src, ok := known[e.Source]
		if _, okT := known[e.Target]; !ok || !okT {
			continue
		}
		fmt.Fprintf(&buf, "  %q:%s -> %q;\n", e.Source, port(src, e.Anchor()), e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// TreeToDOT is [ToDOT] for a whole tree.
func TreeToDOT(t family.Tree, opts Options) string {
	return ToDOT(t.Nodes, t.Edges, opts)
}

func port(h family.Household, a family.Anchor) string {
	if i, ok := a.SpouseIndex(); ok && i < h.SpouseCount() {
		return "s" + strconv.Itoa(i)
	}
	return "p"
}

func fmtLabel(h family.Household, opts Options) string {
	fields := []string{"<p> " + fmtMember(h.Primary, opts)}
	for i, s := range h.Spouses {
		fields = append(fields, fmt.Sprintf("<s%d> %s", i, fmtMember(s, opts)))
	}
	label := strings.Join(fields, " | ")
	if opts.LeftToRight {
		return label
	}
	// Records flip orientation with rankdir; keep members side by side.
	return "{" + label + "}"
}

func fmtMember(m family.Member, opts Options) string {
	s := m.Name
	if opts.Detailed {
		var extra []string
		if m.Nickname != "" {
			extra = append(extra, "("+m.Nickname+")")
		}
		if m.Gender != "" {
			extra = append(extra, string(m.Gender))
		}
		if m.ChildIndex != "" {
			extra = append(extra, "#"+m.ChildIndex)
		}
		if len(extra) > 0 {
			s += " " + strings.Join(extra, " ")
		}
	}
	return escapeRecord(s)
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`, "{", `\{`, "}", `\}`, "|", `\|`, "<", `\<`, ">", `\>`,
)

// quote wraps a record label in DOT quotes. Unlike %q it leaves backslashes
// alone so record escapes reach Graphviz intact.
func quote(label string) string {
	return `"` + strings.ReplaceAll(label, `"`, `\"`) + `"`
}

func escapeRecord(s string) string {
	if s == "" {
		return " "
	}
	return recordEscaper.Replace(s)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with a [render.Rasterizer] such as [render.RSVG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.RSVG{}.PDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.RSVG{}.PNG(ctx, svg, scale)
}
