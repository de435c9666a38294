package render

import "math"

// Conversion ratios at the 96 DPI nominal the browser assumes.
// The pair is intentionally lossy: mm -> px -> mm drifts by up to
// ~0.13 mm, which is below print tolerance for the sizes we handle.
const (
	PixelsPerMm = 3.7795
	MmPerPixel  = 0.264583
)

// MmToPixels converts a physical dimension to the nearest whole pixel.
// Inputs under ~0.13 mm round to zero pixels; the renderer rejects those.
func MmToPixels(mm float64) int {
	return int(math.Round(mm * PixelsPerMm))
}

// PixelsToMm converts a pixel dimension to millimeters
func PixelsToMm(px float64) float64 {
	return px * MmPerPixel
}
