package render

import (
	"math"
	"testing"
)

func TestMmToPixels(t *testing.T) {
	tests := []struct {
		mm   float64
		want int
	}{
		{210, 794},
		{297, 1123},
		{0, 0},
		{0.1, 0},
	}
	for _, tt := range tests {
		if got := MmToPixels(tt.mm); got != tt.want {
			t.Errorf("MmToPixels(%v) = %d, want %d", tt.mm, got, tt.want)
		}
	}
}

func TestPixelsToMm(t *testing.T) {
	got := PixelsToMm(1080)
	if math.Abs(got-285.75) > 0.1 {
		t.Errorf("PixelsToMm(1080) = %v, want about 285.75", got)
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	// A4 and a couple of other common print sizes
	for _, mm := range []float64{210, 297, 105, 148} {
		px := MmToPixels(mm)
		back := PixelsToMm(float64(px))
		if math.Abs(back-mm) > 0.3 {
			t.Errorf("mm->px->mm for %v drifted to %v", mm, back)
		}
	}
	for _, px := range []int{1080, 1920, 794} {
		mm := PixelsToMm(float64(px))
		back := MmToPixels(mm)
		if abs(back-px) > 1 {
			t.Errorf("px->mm->px for %d drifted to %d", px, back)
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
