package texture

import (
	"math/rand"
	"testing"

	"row-major/lumen/vmath/vec2"
	"row-major/lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

var (
	oddColour  = vec3.T{0, 0, 0}
	evenColour = vec3.T{1, 1, 1}
)

func TestChequered(t *testing.T) {
	tex := Chequered(Constant(oddColour), Constant(evenColour))

	testCases := []struct {
		desc string
		p    vec3.T
		want vec3.T
	}{
		{"ground plane, positive sines", vec3.T{0.05, 0, 0.05}, evenColour},
		{"ground plane, negative x", vec3.T{-0.05, 0, 0.05}, oddColour},
		{"off plane, negative z", vec3.T{0.05, 0.05, -0.05}, oddColour},
		{"off plane, two negatives", vec3.T{-0.05, 0.05, -0.05}, evenColour},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if diff := cmp.Diff(tex(vec2.T{}, tc.p), tc.want); diff != "" {
				t.Errorf("Bad colour; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestPerlinZeroAtLattice(t *testing.T) {
	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			for z := -3; z <= 3; z++ {
				p := vec3.T{float64(x), float64(y), float64(z)}
				if got := Perlin(p); got != 0 {
					t.Errorf("Perlin(%v) = %v, want 0", p, got)
				}
			}
		}
	}
}

func TestPerlinDeterministic(t *testing.T) {
	p := vec3.T{1.3, -2.7, 0.4}
	if a, b := Perlin(p), Perlin(p); a != b {
		t.Errorf("Perlin(%v) gave %v then %v", p, a, b)
	}
}

func TestNoiseRange(t *testing.T) {
	tex := Noise(4)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		p := vec3.T{rng.Float64()*20 - 10, rng.Float64()*20 - 10, rng.Float64()*20 - 10}

		if turb := Turbulence(p, 7); turb < 0 {
			t.Errorf("Turbulence(%v) = %v, want non-negative", p, turb)
		}

		c := tex(vec2.T{}, p)
		if c[0] < 0 || c[0] > 1 {
			t.Errorf("Noise at %v = %v, outside [0, 1]", p, c[0])
		}
		if c[0] != c[1] || c[1] != c[2] {
			t.Errorf("Noise at %v = %v, want grey", p, c)
		}
	}
}
