package geometry

import (
	"fmt"

	"row-major/lumen/aabox"
	"row-major/lumen/affinetransform"
	"row-major/lumen/contact"
	"row-major/lumen/ray"
	"row-major/lumen/vmath/mat33"
	"row-major/lumen/vmath/vec3"
)

// Quad is a planar quadrilateral made of two triangles sharing the 0-2
// diagonal.
type Quad struct {
	parts *List
}

// NewQuad rotates the vertices about the origin before triangulating them.
func NewQuad(vertices [4]vec3.T, rotation mat33.T, m contact.Material) *Quad {
	var rv [4]vec3.T
	for i, v := range vertices {
		rv[i] = mat33.MulMV(rotation, v)
	}
	return &Quad{
		parts: NewList(
			NewTriangle([3]vec3.T{rv[0], rv[1], rv[2]}, m),
			NewTriangle([3]vec3.T{rv[0], rv[2], rv[3]}, m),
		),
	}
}

func (q *Quad) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return q.parts.GetAABox(shutter)
}

func (q *Quad) RayInto(query ray.RaySegment) contact.Contact {
	return q.parts.RayInto(query)
}

// Pyramid is a square pyramid resting on its base.  The base is rotated about
// the apex axis; the apex always sits height units above position.
type Pyramid struct {
	parts *List
}

func NewPyramid(position vec3.T, baseLength, height float64, rotation mat33.T, m contact.Material) *Pyramid {
	corners := [4]vec3.T{
		{-0.5, 0.0, 0.5},
		{-0.5, 0.0, -0.5},
		{0.5, 0.0, -0.5},
		{0.5, 0.0, 0.5},
	}
	var base [4]vec3.T
	for i, c := range corners {
		base[i] = vec3.AddVV(position, mat33.MulMV(rotation, vec3.MulVS(c, baseLength)))
	}
	zenith := vec3.AddVV(position, vec3.T{0, height, 0})

	return &Pyramid{
		parts: NewList(
			NewTriangle([3]vec3.T{base[0], zenith, base[3]}, m),
			NewTriangle([3]vec3.T{base[3], zenith, base[2]}, m),
			NewTriangle([3]vec3.T{base[2], zenith, base[1]}, m),
			NewTriangle([3]vec3.T{base[1], zenith, base[0]}, m),
			NewQuad([4]vec3.T{base[0], base[3], base[2], base[1]}, mat33.Identity(), m),
		),
	}
}

func (p *Pyramid) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return p.parts.GetAABox(shutter)
}

func (p *Pyramid) RayInto(query ray.RaySegment) contact.Contact {
	return p.parts.RayInto(query)
}

// MeshData is an indexed triangle mesh in model space.  Normals are per
// vertex, so len(Normals) == len(Vertices).
type MeshData struct {
	Vertices []vec3.T
	Normals  []vec3.T
	Faces    [][3]int
}

// Mesh is a smooth-shaded triangle mesh placed in the world.
type Mesh struct {
	parts *List
}

func NewMesh(data *MeshData, modelToWorld affinetransform.AffineTransform, m contact.Material) (*Mesh, error) {
	if len(data.Normals) != len(data.Vertices) {
		return nil, fmt.Errorf("mesh has %d vertices but %d normals", len(data.Vertices), len(data.Normals))
	}

	mesh := &Mesh{parts: NewList()}
	for fi, f := range data.Faces {
		tri := &NormalTriangle{Material: m}
		for k, idx := range f {
			if idx < 0 || idx >= len(data.Vertices) {
				return nil, fmt.Errorf("face %d references vertex %d, but the mesh has %d vertices", fi, idx, len(data.Vertices))
			}
			tri.Vertices[k] = affinetransform.TransformPoint(modelToWorld, data.Vertices[idx])
			tri.Normals[k] = affinetransform.TransformNormal(modelToWorld, data.Normals[idx])
		}
		mesh.parts.Add(tri)
	}

	return mesh, nil
}

func (m *Mesh) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return m.parts.GetAABox(shutter)
}

func (m *Mesh) RayInto(query ray.RaySegment) contact.Contact {
	return m.parts.RayInto(query)
}

// Triangles exposes the mesh faces, so they can be handed individually to an
// acceleration structure.
func (m *Mesh) Triangles() []Geometry {
	return m.parts.Elements
}
