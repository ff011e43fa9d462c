package render

// Export scaling policy, in drawing pixels.
const (
	DefaultPixelRatio = 3.0

	// Drawings wider or taller than these are exported at lower ratios.
	LargeDrawing = 2500.0
	HugeDrawing  = 5000.0

	// Beyond WarnDrawing even a ratio of 1 may exceed viewer limits.
	WarnDrawing = 10000.0

	// PDFMargin surrounds the drawing on every side of a PDF page.
	PDFMargin = 50.0
)

// PixelRatio returns the raster scale for a drawing of the given size:
// 3, or 2 once either side exceeds LargeDrawing, or 1 past HugeDrawing.
func PixelRatio(width, height float64) float64 {
	side := max(width, height)
	switch {
	case side > HugeDrawing:
		return 1
	case side > LargeDrawing:
		return 2
	}
	return DefaultPixelRatio
}

// TooLarge reports whether a drawing is big enough that an export may fail
// or be unreadable.
func TooLarge(width, height float64) bool {
	return max(width, height) > WarnDrawing
}

// PageSize returns the PDF page size for a drawing: the drawing plus
// PDFMargin on each side.
func PageSize(width, height float64) (float64, float64) {
	return width + 2*PDFMargin, height + 2*PDFMargin
}
