// Package texture maps surface and volume coordinates to colours.
package texture

import (
	"math"

	"row-major/lumen/vmath/vec2"
	"row-major/lumen/vmath/vec3"
)

// Texture gives the colour at a contact.  uv are surface coordinates, p is
// the world-space point.
type Texture func(uv vec2.T, p vec3.T) vec3.T

func Constant(colour vec3.T) Texture {
	return func(uv vec2.T, p vec3.T) vec3.T {
		return colour
	}
}

const chequerFrequency = 10.0

// Chequered alternates between odd and even on the sign of a product of sines.
// Points on the y = 0 plane drop the y factor, which would otherwise be zero
// everywhere on the plane.
func Chequered(odd, even Texture) Texture {
	return func(uv vec2.T, p vec3.T) vec3.T {
		var sines float64
		if p[1] == 0 {
			sines = math.Sin(chequerFrequency*p[0]) * math.Sin(chequerFrequency*p[2])
		} else {
			sines = math.Sin(chequerFrequency*p[0]) * math.Sin(chequerFrequency*p[1]) * math.Sin(chequerFrequency*p[2])
		}

		if sines < 0 {
			return odd(uv, p)
		}
		return even(uv, p)
	}
}

// Noise is a grey marble pattern: sine stripes along z, perturbed by Perlin
// turbulence.
func Noise(scale float64) Texture {
	return func(uv vec2.T, p vec3.T) vec3.T {
		g := 0.5 * (1.0 + math.Sin(scale*p[2]+10.0*Turbulence(p, turbulenceOctaves)))
		return vec3.T{g, g, g}
	}
}

// A multiplicative hash (in Knuth's style), that makes use of the fact that we
// only use 24 input bits.
//
// The multiplicative constant is floor(2^24 / (golden ratio)), tweaked a bit to
// avoid attractors above 0xc in the last digit.
func hashmul(x uint32) uint32 {
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = ((x >> 16) ^ x)
	return x
}

// perlinDotGrad picks one of 12 edge gradients (4 repeated) for the lattice
// corner (c0, c1, c2) and dots it with the offset (d0, d1, d2).
func perlinDotGrad(c0, c1, c2 uint32, d0, d1, d2 float64) float64 {
	hash := hashmul(((c0 & 0xff) << 16) | ((c1 & 0xff) << 8) | (c2&0xff)<<0)

	switch hash & 0x0f {
	case 0x0:
		return d0 + d1
	case 0x1:
		return d0 - d1
	case 0x2:
		return -d0 + d1
	case 0x3:
		return -d0 - d1

	case 0x4:
		return d1 + d2
	case 0x5:
		return d1 - d2
	case 0x6:
		return -d1 + d2
	case 0x7:
		return -d1 - d2

	case 0x8:
		return d2 + d0
	case 0x9:
		return d2 - d0
	case 0xa:
		return -d2 + d0
	case 0xb:
		return -d2 - d0

	case 0xc:
		return d0 + d1
	case 0xd:
		return -d0 + d1
	case 0xe:
		return -d1 + d2
	default:
		return -d1 - d2
	}
}

func fade(x float64) float64 {
	return x * x * x * (x*(x*6.0-15.0) + 10.0)
}

func lerp(t, a, b float64) float64 {
	return (1-t)*a + t*b
}

// Perlin is gradient noise with unit lattice spacing.  It is zero at every
// lattice point and stays within [-2, 2].
func Perlin(p vec3.T) float64 {
	fx, fy, fz := math.Floor(p[0]), math.Floor(p[1]), math.Floor(p[2])

	cx := uint32(int32(fx) & 0xff)
	cy := uint32(int32(fy) & 0xff)
	cz := uint32(int32(fz) & 0xff)

	x := p[0] - fx
	y := p[1] - fy
	z := p[2] - fz

	u, v, w := fade(x), fade(y), fade(z)

	return lerp(w,
		lerp(v,
			lerp(u,
				perlinDotGrad(cx+0, cy+0, cz+0, x-0, y-0, z-0),
				perlinDotGrad(cx+1, cy+0, cz+0, x-1, y-0, z-0),
			),
			lerp(u,
				perlinDotGrad(cx+0, cy+1, cz+0, x-0, y-1, z-0),
				perlinDotGrad(cx+1, cy+1, cz+0, x-1, y-1, z-0),
			),
		),
		lerp(v,
			lerp(u,
				perlinDotGrad(cx+0, cy+0, cz+1, x-0, y-0, z-1),
				perlinDotGrad(cx+1, cy+0, cz+1, x-1, y-0, z-1),
			),
			lerp(u,
				perlinDotGrad(cx+0, cy+1, cz+1, x-0, y-1, z-1),
				perlinDotGrad(cx+1, cy+1, cz+1, x-1, y-1, z-1),
			),
		),
	)
}

const turbulenceOctaves = 7

// Turbulence sums octaves of Perlin noise, each at double the frequency and
// half the weight of the last.  The result is non-negative.
func Turbulence(p vec3.T, octaves int) float64 {
	accum := 0.0
	weight := 1.0
	for i := 0; i < octaves; i++ {
		accum += weight * Perlin(p)
		weight *= 0.5
		p = vec3.MulVS(p, 2.0)
	}
	return math.Abs(accum)
}
