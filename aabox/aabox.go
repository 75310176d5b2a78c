package aabox

import (
	"fmt"
	"math"

	"row-major/lumen/ray"
	"row-major/lumen/vmath/vec3"
)

// AABox is an axis-aligned box.  Each span satisfies Lo <= Hi.
type AABox struct {
	X, Y, Z ray.Span
}

func AccumZeroAABox() AABox {
	return AABox{
		X: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Y: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Z: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
	}
}

// FromCorners builds the box with the given min and max corners.
func FromCorners(min, max vec3.T) AABox {
	return AABox{
		X: ray.Span{Lo: min[0], Hi: max[0]},
		Y: ray.Span{Lo: min[1], Hi: max[1]},
		Z: ray.Span{Lo: min[2], Hi: max[2]},
	}
}

// MinContainingAABox is the surrounding box of a and b.
func MinContainingAABox(a, b AABox) AABox {
	return AABox{
		X: ray.MinContainingSpan(a.X, b.X),
		Y: ray.MinContainingSpan(a.Y, b.Y),
		Z: ray.MinContainingSpan(a.Z, b.Z),
	}
}

func GrowAABoxToPoint(a AABox, b vec3.T) AABox {
	return MinContainingAABox(a, FromCorners(b, b))
}

func (a AABox) Min() vec3.T {
	return vec3.T{a.X.Lo, a.Y.Lo, a.Z.Lo}
}

func (a AABox) Max() vec3.T {
	return vec3.T{a.X.Hi, a.Y.Hi, a.Z.Hi}
}

func (a AABox) Axis(i int) ray.Span {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	case 2:
		return a.Z
	}
	panic(fmt.Sprintf("aabox: axis %d out of range", i))
}

// RayTestAABox clips the query segment against b with the slab method.  It
// returns the surviving parameter interval, or a NaN span if the ray misses.
//
// A zero slope component divides to a signed infinity, which turns that axis
// into an unbounded slab.  That is intended.
func RayTestAABox(r ray.RaySegment, b AABox) ray.Span {
	cover := r.TheSegment

	for axis := 0; axis < 3; axis++ {
		slab := b.Axis(axis)
		invD := 1.0 / r.TheRay.Slope[axis]
		t0 := (slab.Lo - r.TheRay.Point[axis]) * invD
		t1 := (slab.Hi - r.TheRay.Point[axis]) * invD
		if invD < 0.0 {
			t0, t1 = t1, t0
		}

		if t0 > cover.Lo {
			cover.Lo = t0
		}
		if t1 < cover.Hi {
			cover.Hi = t1
		}

		if cover.Hi <= cover.Lo {
			return ray.NaNSpan()
		}
	}

	return cover
}

func (a AABox) Hit(r ray.RaySegment) bool {
	return !RayTestAABox(r, a).IsNaN()
}
