package svg

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
)

const (
	cardRadius  = 10.0
	accentWidth = 4.0
	avatarR     = 16.0
	nameSize    = 13.0
	metaSize    = 10.0
	fanBarDrop  = 30.0 // from the primary card's bottom to the spouse bar
)

func genderColor(g family.Gender) string {
	if g == family.Female {
		return FemaleColor
	}
	return MaleColor
}

func renderHousehold(buf *bytes.Buffer, h family.Household) {
	size := layout.Resolve(h)
	x, y := h.Position.X, h.Position.Y
	fmt.Fprintf(buf, `    <g class="household %s" id="household-%s">`+"\n", h.Shape(), escape(h.ID))
	if h.Shape() == family.ShapeFan {
		renderFan(buf, h, x, y, size)
	} else {
		renderUnified(buf, h, x, y, size)
	}
	buf.WriteString("    </g>\n")
}

// renderUnified draws the primary and an optional spouse side by side on
// one card with a heart between them.
func renderUnified(buf *bytes.Buffer, h family.Household, x, y float64, size layout.Size) {
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="%s" filter="url(#card-shadow)"/>`+"\n",
		x, y, size.Width, size.Height, cardRadius, CardFill)
	renderPerson(buf, h.Primary, h.Primary.Gender.Or(family.Male), x, y)
	if len(h.Spouses) == 1 {
		s := h.Spouses[0]
		renderPerson(buf, s, s.Gender.Or(family.Female), x+layout.CardWidth, y)
		renderHeart(buf, x+layout.CardWidth, y+layout.CardHeight/2)
	}
}

// renderFan draws the primary card centered on top, a stem down to a bar,
// and the spouse cards hanging from the bar in anchor order.
func renderFan(buf *bytes.Buffer, h family.Household, x, y float64, size layout.Size) {
	px := x + (size.Width-layout.CardWidth)/2
	renderCard(buf, px, y)
	renderPerson(buf, h.Primary, h.Primary.Gender.Or(family.Male), px, y)

	rowY := y + size.Height - layout.CardHeight
	barY := y + layout.CardHeight + fanBarDrop
	first := x + layout.CardWidth/2
	last := x + size.Width - layout.CardWidth/2
	fmt.Fprintf(buf, `      <path d="M%.1f,%.1f V%.1f M%.1f,%.1f H%.1f" stroke="%s" stroke-width="2" fill="none"/>`+"\n",
		x+size.Width/2, y+layout.CardHeight, barY, first, barY, last, StemColor)

	for i, s := range h.Spouses {
		sx := x + float64(i)*(layout.CardWidth+layout.InnerGap)
		fmt.Fprintf(buf, `      <path d="M%.1f,%.1f V%.1f" stroke="%s" stroke-width="2" fill="none"/>`+"\n",
			sx+layout.CardWidth/2, barY, rowY, StemColor)
		renderCard(buf, sx, rowY)
		renderPerson(buf, s, s.Gender.Or(family.Female), sx, rowY)
	}
}

func renderCard(buf *bytes.Buffer, x, y float64) {
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.0f" height="%.0f" rx="%.0f" fill="%s" filter="url(#card-shadow)"/>`+"\n",
		x, y, layout.CardWidth, layout.CardHeight, cardRadius, CardFill)
}

// renderPerson draws one member in the card-sized section at x, y.
func renderPerson(buf *bytes.Buffer, m family.Member, g family.Gender, x, y float64) {
	color := genderColor(g)
	fmt.Fprintf(buf, `      <rect class="person %s" x="%.1f" y="%.1f" width="%.0f" height="%.0f" fill="%s"/>`+"\n",
		g, x+cardRadius/2, y+cardRadius, accentWidth, layout.CardHeight-2*cardRadius, color)

	cx, cy := x+28, y+40
	if isImageRef(m.Photo) {
		fmt.Fprintf(buf, `      <clipPath id="clip-%.0f-%.0f"><circle cx="%.1f" cy="%.1f" r="%.0f"/></clipPath>`+"\n", x, y, cx, cy, avatarR)
		fmt.Fprintf(buf, `      <image href="%s" x="%.1f" y="%.1f" width="%.0f" height="%.0f" clip-path="url(#clip-%.0f-%.0f)" preserveAspectRatio="xMidYMid slice"/>`+"\n",
			escape(m.Photo), cx-avatarR, cy-avatarR, 2*avatarR, 2*avatarR, x, y)
	} else {
		fmt.Fprintf(buf, `      <circle cx="%.1f" cy="%.1f" r="%.0f" fill="none" stroke="%s" stroke-width="2"/>`+"\n", cx, cy, avatarR, color)
		fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="%.0f" fill="%s" text-anchor="middle" font-family="sans-serif">%s</text>`+"\n",
			cx, cy+5, nameSize, color, escape(initials(m.Name)))
	}

	tx := x + 54
	avail := layout.CardWidth - 54 - 8
	name := m.Name
	if m.Nickname != "" {
		name += " (" + m.Nickname + ")"
	}
	fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="%.0f" font-weight="600" fill="%s" font-family="sans-serif">%s</text>`+"\n",
		tx, y+38, nameSize, TextColor, escape(truncate(name, avail, nameSize)))

	line := y + 58
	if m.Mobile != "" {
		fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="%.0f" fill="%s" font-family="sans-serif">☎ %s</text>`+"\n",
			tx, line, metaSize, MutedColor, escape(truncate(m.Mobile, avail-12, metaSize)))
		line += 18
	}
	if m.ChildIndex != "" {
		label := "#" + m.ChildIndex
		bw := textWidth(label, metaSize) + 10
		fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="16" rx="8" fill="%s" fill-opacity="0.2"/>`+"\n",
			tx, line-12, bw, color)
		fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="%.0f" fill="%s" font-family="sans-serif">%s</text>`+"\n",
			tx+5, line, metaSize, color, escape(label))
	}
}

func renderHeart(buf *bytes.Buffer, cx, cy float64) {
	fmt.Fprintf(buf, `      <path class="heart" transform="translate(%.1f,%.1f)" d="M0,4 C-6,-2 -10,-6 -6,-9 C-3,-11 0,-8 0,-6 C0,-8 3,-11 6,-9 C10,-6 6,-2 0,4 Z" fill="%s"/>`+"\n",
		cx, cy, HeartColor)
}

func isImageRef(s string) bool {
	return strings.HasPrefix(s, "data:image/") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func initials(name string) string {
	var out []rune
	for _, f := range strings.Fields(name) {
		out = append(out, []rune(strings.ToUpper(f))[0])
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}
