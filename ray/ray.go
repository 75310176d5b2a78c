// Package ray holds rays and the parameter intervals they are queried over.
package ray

import (
	"math"

	"row-major/lumen/vmath/vec3"
)

// Span is an interval of ray parameters.  A NaN bound marks an empty span.
type Span struct {
	Lo, Hi float64
}

func NaNSpan() Span {
	return Span{math.NaN(), math.NaN()}
}

func MinContainingSpan(a, b Span) Span {
	min := a.Lo
	if b.Lo < a.Lo {
		min = b.Lo
	}

	max := a.Hi
	if b.Hi > a.Hi {
		max = b.Hi
	}

	return Span{min, max}
}

func (s Span) IsNaN() bool {
	return math.IsNaN(s.Lo) || math.IsNaN(s.Hi)
}

// Interior reports whether t lies strictly between Lo and Hi.
func (s Span) Interior(t float64) bool {
	return s.Lo < t && t < s.Hi
}

// Ray is a half-line stamped with the moment it was emitted.  Slope is not
// required to be normalized.
type Ray struct {
	Point vec3.T
	Slope vec3.T
	Time  float64
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

// RaySegment restricts a ray to the parameter interval TheSegment.
type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}

// Beyond queries r for everything past parameter tMin.
func Beyond(r Ray, tMin float64) RaySegment {
	return RaySegment{
		TheRay:     r,
		TheSegment: Span{Lo: tMin, Hi: math.Inf(1)},
	}
}
