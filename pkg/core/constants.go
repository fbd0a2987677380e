package core

import "math"

const (
	// ShadowAcneEpsilon is the lower ray bound used when tracing secondary rays
	// so that a scattered ray does not re-hit the surface it left.
	ShadowAcneEpsilon = 0.001

	// NearZeroEpsilon bounds each component of a vector considered degenerate.
	NearZeroEpsilon = 1e-8

	// IntersectionEpsilon bounds the triangle determinant and the smallest accepted t.
	IntersectionEpsilon = 1e-8
)

// Infinity is the unbounded upper ray parameter
var Infinity = math.Inf(1)

// DegreesToRadians converts an angle in degrees to radians
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
