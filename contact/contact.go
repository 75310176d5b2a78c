package contact

import (
	"math"
	"math/rand"

	"row-major/lumen/ray"
	"row-major/lumen/vmath/vec2"
	"row-major/lumen/vmath/vec3"
)

// Material decides what happens to a ray that strikes a surface.
//
// Implementations are immutable and are shared by every render goroutine.
type Material interface {
	Scatter(in ray.Ray, c Contact, rng *rand.Rand) (attenuation vec3.T, scattered ray.Ray, ok bool)
}

// Contact records where a ray struck a surface.
type Contact struct {
	T float64
	P vec3.T

	// N is unit length, but not guaranteed to face the incoming ray.
	N vec3.T

	// Surface coordinates, where the geometry defines them.
	UV vec2.T

	// Nil when the surface has no material.
	Material Material
}

func ContactNaN() Contact {
	return Contact{
		T: math.NaN(),
	}
}

func (c Contact) Hit() bool {
	return !math.IsNaN(c.T)
}
