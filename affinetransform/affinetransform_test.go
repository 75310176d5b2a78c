package affinetransform

import (
	"testing"

	"row-major/lumen/vmath/mat33"
	"row-major/lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestTransformPoint(t *testing.T) {
	// Scale, then rotate a quarter turn about y, then translate.
	xf := Compose(Translate(vec3.T{10, 0, 0}), Compose(Rotate(mat33.RotationY(90)), Scale(2)))

	testCases := []struct {
		in, want vec3.T
	}{
		{vec3.T{0, 0, 0}, vec3.T{10, 0, 0}},
		{vec3.T{1, 0, 0}, vec3.T{10, 0, -2}},
		{vec3.T{0, 1, 0}, vec3.T{10, 2, 0}},
		{vec3.T{0, 0, 1}, vec3.T{12, 0, 0}},
	}

	for _, tc := range testCases {
		got := TransformPoint(xf, tc.in)
		if diff := cmp.Diff(got, tc.want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("TransformPoint(%v): diff (-got +want)\n%s", tc.in, diff)
		}
	}
}

func TestComposeIdentity(t *testing.T) {
	xf := Compose(Translate(vec3.T{1, 2, 3}), Scale(4))

	if diff := cmp.Diff(Compose(Identity(), xf), xf); diff != "" {
		t.Errorf("Identity on the left changed the transform; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(Compose(xf, Identity()), xf); diff != "" {
		t.Errorf("Identity on the right changed the transform; diff (-got +want)\n%s", diff)
	}
}

func TestTransformNormal(t *testing.T) {
	// Under a non-uniform stretch, normals must stay perpendicular to the
	// surface rather than follow the points.
	stretch := AffineTransform{
		Linear: mat33.T{Elts: [9]float64{2, 0, 0, 0, 1, 0, 0, 0, 1}},
	}

	// The plane x + y = 0 has normal (1, 1, 0) and contains (1, -1, 0).
	tangent := mat33.MulMV(stretch.Linear, vec3.T{1, -1, 0})
	n := TransformNormal(stretch, vec3.T{1, 1, 0})

	if d := vec3.IProd(n, tangent); d > 1e-12 || d < -1e-12 {
		t.Errorf("Transformed normal %v is not perpendicular to tangent %v", n, tangent)
	}
	if diff := cmp.Diff(n.Norm(), 1.0, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Transformed normal is not unit length; diff (-got +want)\n%s", diff)
	}
}
