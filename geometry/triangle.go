package geometry

import (
	"math"

	"row-major/lumen/aabox"
	"row-major/lumen/contact"
	"row-major/lumen/ray"
	"row-major/lumen/vmath/vec2"
	"row-major/lumen/vmath/vec3"
)

// Triangle is a flat-shaded triangle.
type Triangle struct {
	Vertices [3]vec3.T
	Normal   vec3.T
	Material contact.Material
}

func NewTriangle(vertices [3]vec3.T, m contact.Material) *Triangle {
	e1 := vec3.SubVV(vertices[1], vertices[0])
	e2 := vec3.SubVV(vertices[2], vertices[0])
	return &Triangle{
		Vertices: vertices,
		Normal:   vec3.Normalize(vec3.CProd(e2, e1)),
		Material: m,
	}
}

func (tr *Triangle) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return triangleBox(tr.Vertices), nil
}

func (tr *Triangle) RayInto(query ray.RaySegment) contact.Contact {
	t, u, v, ok := mollerTrumbore(query, tr.Vertices)
	if !ok {
		return contact.ContactNaN()
	}
	return contact.Contact{
		T:        t,
		P:        query.TheRay.Eval(t),
		N:        tr.Normal,
		UV:       vec2.T{u, v},
		Material: tr.Material,
	}
}

// NormalTriangle interpolates per-vertex normals across its face.
type NormalTriangle struct {
	Vertices [3]vec3.T
	Normals  [3]vec3.T
	Material contact.Material
}

func (tr *NormalTriangle) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return triangleBox(tr.Vertices), nil
}

func (tr *NormalTriangle) RayInto(query ray.RaySegment) contact.Contact {
	t, u, v, ok := mollerTrumbore(query, tr.Vertices)
	if !ok {
		return contact.ContactNaN()
	}

	n := vec3.AddVV(
		vec3.AddVV(vec3.MulVS(tr.Normals[1], u), vec3.MulVS(tr.Normals[2], v)),
		vec3.MulVS(tr.Normals[0], 1-u-v),
	)

	return contact.Contact{
		T:        t,
		P:        query.TheRay.Eval(t),
		N:        n,
		UV:       vec2.T{u, v},
		Material: tr.Material,
	}
}

// mollerTrumbore returns the ray parameter and barycentric coordinates of the
// intersection between query and the triangle with the given vertices.
func mollerTrumbore(query ray.RaySegment, vs [3]vec3.T) (t, u, v float64, ok bool) {
	e1 := vec3.SubVV(vs[1], vs[0])
	e2 := vec3.SubVV(vs[2], vs[0])
	dir := query.TheRay.Slope

	pvec := vec3.CProd(dir, e2)
	det := vec3.IProd(e1, pvec)
	if math.Abs(det) < 1e-5 {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	tvec := vec3.SubVV(query.TheRay.Point, vs[0])
	u = vec3.IProd(tvec, pvec) * invDet
	if u < 0.0 || u > 1.0 {
		return 0, 0, 0, false
	}

	qvec := vec3.CProd(tvec, e1)
	v = vec3.IProd(dir, qvec) * invDet
	if v < 0.0 || u+v > 1.0 {
		return 0, 0, 0, false
	}

	t = vec3.IProd(e2, qvec) * invDet
	if !accept(t, query.TheSegment) {
		return 0, 0, 0, false
	}

	return t, u, v, true
}

func triangleBox(vs [3]vec3.T) aabox.AABox {
	b := aabox.AccumZeroAABox()
	for _, v := range vs {
		b = aabox.GrowAABoxToPoint(b, v)
	}
	return b
}
