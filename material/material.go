package material

import (
	"math"
	"math/rand"

	"row-major/lumen/contact"
	"row-major/lumen/ray"
	"row-major/lumen/texture"
	"row-major/lumen/vmath/vec3"
)

var (
	_ contact.Material = (*Lambertian)(nil)
	_ contact.Material = (*TexturedLambertian)(nil)
	_ contact.Material = (*Metal)(nil)
	_ contact.Material = (*Dielectric)(nil)
)

// Lambertian is an ideal diffuse reflector with a fixed colour.
type Lambertian struct {
	Albedo vec3.T
}

func (m *Lambertian) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (vec3.T, ray.Ray, bool) {
	return m.Albedo, diffuse(in, c, rng), true
}

// TexturedLambertian is a diffuse reflector whose colour comes from a texture.
type TexturedLambertian struct {
	Texture texture.Texture
}

func (m *TexturedLambertian) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (vec3.T, ray.Ray, bool) {
	return m.Texture(c.UV, c.P), diffuse(in, c, rng), true
}

func diffuse(in ray.Ray, c contact.Contact, rng *rand.Rand) ray.Ray {
	target := vec3.AddVV(vec3.AddVV(c.P, c.N), vec3.RandomInUnitSphere(rng))
	return ray.Ray{
		Point: c.P,
		Slope: vec3.SubVV(target, c.P),
		Time:  in.Time,
	}
}

// Metal is a mirror, blurred by Fuzz.  Fuzz is expected in [0, 1].
type Metal struct {
	Albedo vec3.T
	Fuzz   float64
}

func (m *Metal) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (vec3.T, ray.Ray, bool) {
	reflected := vec3.Reflect(vec3.Normalize(in.Slope), c.N)
	scattered := ray.Ray{
		Point: c.P,
		Slope: vec3.AddVV(reflected, vec3.MulVS(vec3.RandomInUnitSphere(rng), m.Fuzz)),
		Time:  in.Time,
	}
	// Fuzz can push the reflection below the surface, where it is absorbed.
	return m.Albedo, scattered, vec3.IProd(scattered.Slope, c.N) > 0
}

// Dielectric is a clear refracting material such as glass.  It never absorbs.
type Dielectric struct {
	RefractiveIndex float64
}

func (m *Dielectric) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (vec3.T, ray.Ray, bool) {
	attenuation := vec3.T{1.0, 1.0, 1.0}
	reflected := vec3.Reflect(in.Slope, c.N)

	dn := vec3.IProd(in.Slope, c.N)
	var outwardNormal vec3.T
	var niOverNt, cosine float64
	if dn > 0 {
		// Leaving the material.
		outwardNormal = vec3.MulVS(c.N, -1)
		niOverNt = m.RefractiveIndex
		cosine = m.RefractiveIndex * dn / in.Slope.Norm()
	} else {
		outwardNormal = c.N
		niOverNt = 1.0 / m.RefractiveIndex
		cosine = -dn / in.Slope.Norm()
	}

	reflectProb := 1.0
	refracted, ok := vec3.Refract(in.Slope, outwardNormal, niOverNt)
	if ok {
		reflectProb = Schlick(cosine, m.RefractiveIndex)
	}

	out := ray.Ray{Point: c.P, Slope: refracted, Time: in.Time}
	if rng.Float64() < reflectProb {
		out.Slope = reflected
	}
	return attenuation, out, true
}

// Schlick approximates the Fresnel reflectance at the given incidence cosine.
func Schlick(cosine, refIdx float64) float64 {
	r0 := (1.0 - refIdx) / (1.0 + refIdx)
	r0 = r0 * r0
	return r0 + (1.0-r0)*math.Pow(1.0-cosine, 5)
}
