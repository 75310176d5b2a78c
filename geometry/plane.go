package geometry

import (
	"fmt"

	"row-major/lumen/aabox"
	"row-major/lumen/contact"
	"row-major/lumen/ray"
	"row-major/lumen/vmath/vec3"
)

// Plane is the infinite plane through Center with unit normal Normal.  It is
// only visible from the side Normal points toward.
type Plane struct {
	Center   vec3.T
	Normal   vec3.T
	Material contact.Material
}

func (p *Plane) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return aabox.AABox{}, fmt.Errorf("plane: %w", ErrNoBoundingBox)
}

func (p *Plane) RayInto(query ray.RaySegment) contact.Contact {
	r := query.TheRay
	dot := vec3.IProd(p.Normal, r.Slope)
	if dot >= 1e-5 {
		return contact.ContactNaN()
	}

	t := vec3.IProd(vec3.SubVV(p.Center, r.Point), p.Normal) / dot
	if !accept(t, query.TheSegment) {
		return contact.ContactNaN()
	}

	return contact.Contact{
		T:        t,
		P:        r.Eval(t),
		N:        p.Normal,
		Material: p.Material,
	}
}
