package geometry

import (
	"math"

	"row-major/lumen/aabox"
	"row-major/lumen/contact"
	"row-major/lumen/ray"
	"row-major/lumen/vmath/vec2"
	"row-major/lumen/vmath/vec3"
)

type Sphere struct {
	Center   vec3.T
	Radius   float64
	Material contact.Material
}

func (s *Sphere) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return sphereBox(s.Center, s.Radius), nil
}

func (s *Sphere) RayInto(query ray.RaySegment) contact.Contact {
	return raySphere(query, s.Center, s.Radius, s.Material)
}

// MovingSphere travels in a straight line from Center0, at MoveStart, to
// Center1, MoveDuration seconds later.
type MovingSphere struct {
	Center0, Center1 vec3.T
	MoveStart        float64
	MoveDuration     float64
	Radius           float64
	Material         contact.Material
}

// CenterAt interpolates the center at the given time.  Times outside the
// movement window extrapolate along the same line.
func (s *MovingSphere) CenterAt(time float64) vec3.T {
	frac := (time - s.MoveStart) / s.MoveDuration
	return vec3.AddVV(s.Center0, vec3.MulVS(vec3.SubVV(s.Center1, s.Center0), frac))
}

// GetAABox bounds the sphere at both ends of the shutter interval.  The path is
// a line, so those two boxes cover every position in between, including any
// extrapolated past the movement window.
func (s *MovingSphere) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return aabox.MinContainingAABox(
		sphereBox(s.CenterAt(shutter.Lo), s.Radius),
		sphereBox(s.CenterAt(shutter.Hi), s.Radius),
	), nil
}

func (s *MovingSphere) RayInto(query ray.RaySegment) contact.Contact {
	return raySphere(query, s.CenterAt(query.TheRay.Time), s.Radius, s.Material)
}

func sphereBox(center vec3.T, radius float64) aabox.AABox {
	r := vec3.T{radius, radius, radius}
	return aabox.FromCorners(vec3.SubVV(center, r), vec3.AddVV(center, r))
}

func raySphere(query ray.RaySegment, center vec3.T, radius float64, m contact.Material) contact.Contact {
	r := query.TheRay
	oc := vec3.SubVV(r.Point, center)
	a := vec3.IProd(r.Slope, r.Slope)
	b := vec3.IProd(oc, r.Slope)
	c := vec3.IProd(oc, oc) - radius*radius

	discriminant := b*b - a*c
	if discriminant <= 0 {
		return contact.ContactNaN()
	}
	root := math.Sqrt(discriminant)

	for _, t := range [2]float64{(-b - root) / a, (-b + root) / a} {
		if !accept(t, query.TheSegment) {
			continue
		}
		p := r.Eval(t)
		n := vec3.DivVS(vec3.SubVV(p, center), radius)
		return contact.Contact{
			T:        t,
			P:        p,
			N:        n,
			UV:       sphereUV(n),
			Material: m,
		}
	}

	return contact.ContactNaN()
}

func sphereUV(n vec3.T) vec2.T {
	z := math.Max(-1, math.Min(1, n[2]))
	return vec2.T{math.Atan2(n[0], n[1]), math.Acos(z)}
}
