package geometry

import (
	"errors"
	"fmt"

	"row-major/lumen/aabox"
	"row-major/lumen/contact"
	"row-major/lumen/ray"
)

// Geometry is anything a ray can strike.
type Geometry interface {
	// GetAABox bounds the geometry over the shutter interval.  Geometry that
	// cannot be bounded returns an error wrapping ErrNoBoundingBox.
	GetAABox(shutter ray.Span) (aabox.AABox, error)

	// RayInto returns the nearest contact inside the query segment, or
	// contact.ContactNaN() if there is none.
	RayInto(query ray.RaySegment) contact.Contact
}

var ErrNoBoundingBox = errors.New("geometry has no bounding box")

// Contacts closer than this to the ray origin are rejected, so that a
// scattered ray does not immediately re-strike the surface it left.
const selfIntersectEpsilon = 1e-5

func accept(t float64, seg ray.Span) bool {
	return t > selfIntersectEpsilon && seg.Interior(t)
}

// List is an unordered aggregate searched linearly.
type List struct {
	Elements []Geometry
}

func NewList(elements ...Geometry) *List {
	return &List{Elements: elements}
}

func (l *List) Add(g ...Geometry) {
	l.Elements = append(l.Elements, g...)
}

func (l *List) RayInto(query ray.RaySegment) contact.Contact {
	closest := contact.ContactNaN()
	for _, g := range l.Elements {
		c := g.RayInto(query)
		if !c.Hit() {
			continue
		}
		query.TheSegment.Hi = c.T
		closest = c
	}
	return closest
}

func (l *List) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	if len(l.Elements) == 0 {
		return aabox.AABox{}, fmt.Errorf("empty list: %w", ErrNoBoundingBox)
	}

	result := aabox.AccumZeroAABox()
	for i, g := range l.Elements {
		b, err := g.GetAABox(shutter)
		if err != nil {
			return aabox.AABox{}, fmt.Errorf("while bounding list element %d: %w", i, err)
		}
		result = aabox.MinContainingAABox(result, b)
	}
	return result, nil
}
