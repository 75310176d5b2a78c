package vec3

import (
	"math"
	"math/rand"
)

type T [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

func Normalize(v T) T {
	l := v.Norm()
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the componentwise product.  Colours are attenuated this way.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Lerp blends from a (t == 0) to b (t == 1).
func Lerp(t float64, a, b T) T {
	return AddVV(MulVS(a, 1-t), MulVS(b, t))
}

func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Refract bends a across a boundary with unit normal n, where niOverNt is the
// ratio of the refractive indices on either side.  The second return value is
// false when Snell's law has no solution (total internal reflection).
func Refract(a, n T, niOverNt float64) (T, bool) {
	ua := Normalize(a)
	dt := IProd(ua, n)
	discriminant := 1.0 - niOverNt*niOverNt*(1.0-dt*dt)
	if discriminant <= 0.0 {
		return T{}, false
	}
	return SubVV(MulVS(SubVV(ua, MulVS(n, dt)), niOverNt), MulVS(n, math.Sqrt(discriminant))), true
}

// RandomInUnitSphere rejection-samples a point strictly inside the unit ball.
func RandomInUnitSphere(rng *rand.Rand) T {
	for {
		p := T{
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
		}
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}

// RandomInUnitDisk rejection-samples a point inside the unit disk in the z=0
// plane.
func RandomInUnitDisk(rng *rand.Rand) T {
	for {
		p := T{
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
			0,
		}
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}
