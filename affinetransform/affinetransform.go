package affinetransform

import (
	"row-major/lumen/vmath/mat33"
	"row-major/lumen/vmath/vec3"
)

type AffineTransform struct {
	Linear mat33.T
	Offset vec3.T
}

func Identity() AffineTransform {
	return AffineTransform{
		Linear: mat33.Identity(),
		Offset: vec3.T{0.0, 0.0, 0.0},
	}
}

func Scale(s float64) AffineTransform {
	return AffineTransform{
		Linear: mat33.T{Elts: [9]float64{s, 0.0, 0.0, 0.0, s, 0.0, 0.0, 0.0, s}},
		Offset: vec3.T{0.0, 0.0, 0.0},
	}
}

func Translate(x vec3.T) AffineTransform {
	result := Identity()
	result.Offset = x
	return result
}

func Rotate(r mat33.T) AffineTransform {
	result := Identity()
	result.Linear = r
	return result
}

// Compose returns the transform that applies b first, then a.
func Compose(a, b AffineTransform) AffineTransform {
	return AffineTransform{
		Linear: mat33.MulMM(a.Linear, b.Linear),
		Offset: vec3.AddVV(a.Offset, mat33.MulMV(a.Linear, b.Offset)),
	}
}

func (t AffineTransform) NormalTransformMat() mat33.T {
	return mat33.Transpose(mat33.Inverse(t.Linear))
}

func TransformPoint(a AffineTransform, b vec3.T) vec3.T {
	return vec3.AddVV(mat33.MulMV(a.Linear, b), a.Offset)
}

// TransformNormal maps a surface normal through a and renormalizes it.
func TransformNormal(a AffineTransform, n vec3.T) vec3.T {
	return vec3.Normalize(mat33.MulMV(a.NormalTransformMat(), n))
}
