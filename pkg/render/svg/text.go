package svg

import (
	"bytes"
	"encoding/xml"
	"unicode/utf8"
)

// Average glyph advance as a fraction of the font size.
const charWidth = 0.55

func textWidth(s string, fontSize float64) float64 {
	return float64(utf8.RuneCountInString(s)) * fontSize * charWidth
}

// truncate shortens s with an ellipsis so it fits in width.
func truncate(s string, width, fontSize float64) string {
	maxChars := max(3, int(width/(fontSize*charWidth)))
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars-1]) + "…"
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
