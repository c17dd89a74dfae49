// Package utils contains small numeric helpers shared by the smoothing packages.
package utils

import (
	"math"
)

// DefaultEpsilon is the distance below which two lengths are considered equal.
const DefaultEpsilon = 1e-6

// WrapAngle returns the given angle in radians in the (-pi, pi] range.
func WrapAngle(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped <= 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// AngleDiff returns the signed shortest rotation, in radians, that takes a1 to a2.
func AngleDiff(a1, a2 float64) float64 {
	return WrapAngle(a2 - a1)
}

// Square is faster than math.Pow(n, 2).
func Square(n float64) float64 {
	return n * n
}

// Clamp restricts value to [lower, upper].
func Clamp(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}

// IsFinite reports whether f is neither infinite nor NaN.
func IsFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// FallingFactorial returns n!/(n-k)!, the coefficient produced by differentiating t^n k times.
// It is zero when k > n.
func FallingFactorial(n, k int) float64 {
	if k > n {
		return 0
	}
	out := 1.0
	for i := 0; i < k; i++ {
		out *= float64(n - i)
	}
	return out
}
