package svg

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
)

const stepRadius = 8.0

// Endpoints returns where an edge leaves its source anchor and where it
// enters its target, in drawing coordinates.
func Endpoints(e family.Edge, src, dst family.Household, dir layout.Direction) (family.Point, family.Point) {
	ss, ds := layout.Resolve(src), layout.Resolve(dst)
	off := layout.AnchorOffset(src, e.Anchor(), dir)
	if dir == layout.LR {
		return family.Point{X: src.Position.X + ss.Width, Y: src.Position.Y + ss.Height/2 + off},
			family.Point{X: dst.Position.X, Y: dst.Position.Y + ds.Height/2}
	}
	return family.Point{X: src.Position.X + ss.Width/2 + off, Y: src.Position.Y + ss.Height},
		family.Point{X: dst.Position.X + ds.Width/2, Y: dst.Position.Y}
}

func renderEdge(buf *bytes.Buffer, e family.Edge, src, dst family.Household, dir layout.Direction) {
	from, to := Endpoints(e, src, dst, dir)
	stroke, width := edgeStroke(e)
	fmt.Fprintf(buf, `    <path class="edge" id="edge-%s" d="%s" stroke="%s" stroke-width="%s" fill="none"/>`+"\n",
		escape(e.ID), StepPath(from, to, dir), escape(stroke), width)
}

// StepPath returns an SVG path from a to b that leaves a along the flow
// axis, turns once across at the midpoint, and enters b along the flow
// axis. Corners are rounded.
func StepPath(a, b family.Point, dir layout.Direction) string {
	// Work in (cross, flow) coordinates and map back at the end.
	type pt struct{ c, f float64 }
	toXY := func(p pt) (float64, float64) {
		if dir == layout.LR {
			return p.f, p.c
		}
		return p.c, p.f
	}
	var s, t pt
	if dir == layout.LR {
		s, t = pt{a.Y, a.X}, pt{b.Y, b.X}
	} else {
		s, t = pt{a.X, a.Y}, pt{b.X, b.Y}
	}

	var sb strings.Builder
	write := func(cmd string, pts ...pt) {
		sb.WriteString(cmd)
		for i, p := range pts {
			if i > 0 {
				sb.WriteByte(' ')
			}
			x, y := toXY(p)
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		}
	}

	write("M", s)
	dc, df := t.c-s.c, t.f-s.f
	if math.Abs(dc) < 0.5 {
		write(" L", t)
		return sb.String()
	}
	mid := s.f + df/2
	r := min(stepRadius, math.Abs(dc)/2, math.Abs(df)/2)
	sc, sf := sign(dc), sign(df)

	write(" L", pt{s.c, mid - sf*r})
	write(" Q", pt{s.c, mid}, pt{s.c + sc*r, mid})
	write(" L", pt{t.c - sc*r, mid})
	write(" Q", pt{t.c, mid}, pt{t.c, mid + sf*r})
	write(" L", t)
	return sb.String()
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func edgeStroke(e family.Edge) (string, string) {
	stroke, width := family.EdgeStroke, fmt.Sprint(family.EdgeStrokeWidth)
	if s, ok := e.Style["stroke"].(string); ok && s != "" {
		stroke = s
	}
	switch w := e.Style["strokeWidth"].(type) {
	case float64:
		width = fmt.Sprintf("%g", w)
	case int:
		width = fmt.Sprint(w)
	case string:
		if w != "" {
			width = w
		}
	}
	return stroke, width
}
