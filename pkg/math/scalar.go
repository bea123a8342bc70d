package math

import "math"

// Round32 rounds half away from zero.
func Round32(f float32) float32 {
	return float32(math.Round(float64(f)))
}

// Clamp01 clamps f into [0, 1].
func Clamp01(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
