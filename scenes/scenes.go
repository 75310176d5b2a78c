// Package scenes holds the built-in scene presets.
package scenes

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"row-major/lumen/affinetransform"
	"row-major/lumen/camera"
	"row-major/lumen/contact"
	"row-major/lumen/geometry"
	"row-major/lumen/material"
	"row-major/lumen/texture"
	"row-major/lumen/vmath/mat33"
	"row-major/lumen/vmath/vec3"
)

// Presets are built with the shutter open over [0, ShutterDuration).
const ShutterDuration = 1.0

const DefaultName = "default"

var ErrUnknownScene = errors.New("unknown scene")

type builder func(aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error)

var presets = map[string]builder{
	"default": defaultScene,
	"random": func(aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error) {
		return randomScene(aspect, rng, false)
	},
	"motionblur": func(aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error) {
		return randomScene(aspect, rng, true)
	},
	"2spheres":       twoSpheres,
	"2perlinspheres": twoPerlinSpheres,
	"pyramid":        pyramidScene,
	"gems":           gemScene,
}

// aliases keeps older preset names working.
var aliases = map[string]string{
	"test":   "pyramid",
	"teapot": "gems",
}

// Names lists the presets in sorted order.  Aliases are not included.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named preset for an image with the given width/height
// ratio.  Random placement draws from rng.
func ByName(name string, aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error) {
	key := name
	if target, ok := aliases[name]; ok {
		key = target
	}
	b, ok := presets[key]
	if !ok {
		return nil, nil, fmt.Errorf("%q: %w", name, ErrUnknownScene)
	}
	world, cam, err := b(aspect, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("while building scene %q: %w", name, err)
	}
	return world, cam, nil
}

func lookAt(from, at vec3.T, vfov, aspect, aperture, focusDist float64) *camera.ThinLens {
	return camera.NewThinLens(camera.ThinLensOptions{
		LookFrom:        from,
		LookAt:          at,
		Up:              vec3.T{0, 1, 0},
		VFOV:            vfov,
		Aspect:          aspect,
		Aperture:        aperture,
		FocusDist:       focusDist,
		ShutterOpen:     0,
		ShutterDuration: ShutterDuration,
	})
}

// placement scales a model about its origin, rotates it, then moves the origin
// to position.
func placement(position vec3.T, scale float64, rotation mat33.T) affinetransform.AffineTransform {
	return affinetransform.Compose(
		affinetransform.Translate(position),
		affinetransform.Compose(affinetransform.Rotate(rotation), affinetransform.Scale(scale)),
	)
}

// Gem is a smooth-shaded octahedron spanning [-0.5, 0.5] on each axis.  It
// stands in wherever a preset wants a mesh.
var Gem = &geometry.MeshData{
	Vertices: []vec3.T{
		{0.5, 0, 0}, {-0.5, 0, 0},
		{0, 0.5, 0}, {0, -0.5, 0},
		{0, 0, 0.5}, {0, 0, -0.5},
	},
	Normals: []vec3.T{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	},
	Faces: [][3]int{
		{0, 2, 4}, {4, 2, 1}, {1, 2, 5}, {5, 2, 0},
		{0, 4, 3}, {4, 1, 3}, {1, 5, 3}, {5, 0, 3},
	},
}

func chequer() contact.Material {
	return &material.TexturedLambertian{
		Texture: texture.Chequered(
			texture.Constant(vec3.T{0.2, 0.3, 0.1}),
			texture.Constant(vec3.T{0.9, 0.9, 0.9}),
		),
	}
}

func defaultScene(aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error) {
	groundLevel := -0.5
	world := geometry.NewList(
		&geometry.Plane{Center: vec3.T{0, groundLevel, 0}, Normal: vec3.T{0, 1, 0}, Material: &material.Lambertian{Albedo: vec3.T{0.8, 0.8, 0.0}}},
		&geometry.Sphere{Center: vec3.T{0, 0, -1}, Radius: 0.5, Material: &material.Lambertian{Albedo: vec3.T{0.1, 0.2, 0.5}}},
		&geometry.Sphere{Center: vec3.T{1, 0, -1}, Radius: 0.5, Material: &material.Metal{Albedo: vec3.T{0.8, 0.6, 0.2}, Fuzz: 0.3}},
		&geometry.Sphere{Center: vec3.T{-1, 0, -1}, Radius: 0.5, Material: &material.Dielectric{RefractiveIndex: 1.5}},
	)

	from := vec3.T{6, 1, 2}
	at := vec3.T{0, 0, -1.1}
	return world, lookAt(from, at, 15, aspect, 0.001, vec3.SubVV(from, at).Norm()), nil
}

// scatterSmallSpheres adds the 22x22 grid of jittered small spheres shared by
// several presets.
func scatterSmallSpheres(world *geometry.List, groundLevel float64, rng *rand.Rand, motionBlur bool) {
	const num = 11
	avoid := vec3.T{4.0, 0.2 + groundLevel, 0.0}

	for a := -num; a < num; a++ {
		for b := -num; b < num; b++ {
			chooseMat := rng.Float64()
			center := vec3.T{float64(a) + 0.9*rng.Float64(), 0.2 + groundLevel, float64(b) + 0.9*rng.Float64()}
			if vec3.SubVV(center, avoid).Norm() <= 0.9 {
				continue
			}

			var m contact.Material
			switch {
			case chooseMat < 0.8:
				m = &material.Lambertian{Albedo: vec3.T{
					rng.Float64() * rng.Float64(),
					rng.Float64() * rng.Float64(),
					rng.Float64() * rng.Float64(),
				}}
			case chooseMat < 0.95:
				m = &material.Metal{
					Albedo: vec3.T{
						0.5 * (1 + rng.Float64()),
						0.5 * (1 + rng.Float64()),
						0.5 * (1 + rng.Float64()),
					},
					Fuzz: 0.5 * rng.Float64(),
				}
			default:
				m = &material.Dielectric{RefractiveIndex: 1.5}
			}

			if motionBlur {
				world.Add(&geometry.MovingSphere{
					Center0:      center,
					Center1:      vec3.AddVV(center, vec3.T{0, 0.5 * rng.Float64(), 0}),
					MoveStart:    0,
					MoveDuration: ShutterDuration,
					Radius:       0.2,
					Material:     m,
				})
			} else {
				world.Add(&geometry.Sphere{Center: center, Radius: 0.2, Material: m})
			}
		}
	}
}

func randomScene(aspect float64, rng *rand.Rand, motionBlur bool) (*geometry.List, camera.Camera, error) {
	groundLevel := 0.0

	world := geometry.NewList(
		geometry.NewQuad(
			[4]vec3.T{
				{-30, groundLevel, -30},
				{30, groundLevel, -30},
				{30, groundLevel, 30},
				{-30, groundLevel, 30},
			},
			mat33.RotationY(10),
			chequer(),
		),
		&geometry.Sphere{Center: vec3.T{0, 1, 0}, Radius: 1, Material: &material.Dielectric{RefractiveIndex: 1.5}},
		&geometry.Sphere{Center: vec3.T{-4, 1, 0}, Radius: 1, Material: &material.TexturedLambertian{Texture: texture.Constant(vec3.T{0.4, 0.2, 0.1})}},
		&geometry.Sphere{Center: vec3.T{4, 1, 0}, Radius: 1, Material: &material.Metal{Albedo: vec3.T{0.7, 0.6, 0.5}, Fuzz: 0}},
	)
	scatterSmallSpheres(world, groundLevel, rng, motionBlur)

	from := vec3.T{24, 2, 6}
	at := vec3.T{0, 1, 0}
	return world, lookAt(from, at, 15, aspect, 0.001, vec3.SubVV(from, at).Norm()), nil
}

func twoSpheres(aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error) {
	m := chequer()
	world := geometry.NewList(
		&geometry.Sphere{Center: vec3.T{0, -10, 0}, Radius: 10, Material: m},
		&geometry.Sphere{Center: vec3.T{0, 10, 0}, Radius: 10, Material: m},
	)
	return world, lookAt(vec3.T{13, 2, 3}, vec3.T{0, 0, 0}, 15, aspect, 0, 10), nil
}

func twoPerlinSpheres(aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error) {
	m := &material.TexturedLambertian{Texture: texture.Noise(0.01)}
	world := geometry.NewList(
		&geometry.Sphere{Center: vec3.T{0, -1000, 0}, Radius: 1000, Material: m},
		&geometry.Sphere{Center: vec3.T{0, 2, 0}, Radius: 2, Material: m},
	)
	return world, lookAt(vec3.T{13, 2, 3}, vec3.T{0, 0, 0}, 15, aspect, 0, 10), nil
}

func pyramidScene(aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error) {
	groundLevel := -0.5
	sphereRadius := 1.0
	shinyScale := 7.0
	glassScale := 1.2

	shiny, err := geometry.NewMesh(Gem, placement(vec3.T{-25, groundLevel + shinyScale/2, -40}, shinyScale, mat33.RotationX(20)), &material.Metal{Albedo: vec3.T{0.7, 0.6, 0.5}, Fuzz: 0})
	if err != nil {
		return nil, nil, fmt.Errorf("while placing shiny mesh: %w", err)
	}
	glass, err := geometry.NewMesh(Gem, placement(vec3.T{8.5, groundLevel + glassScale/2, 15}, glassScale, mat33.RotationY(240)), &material.Dielectric{RefractiveIndex: 1.5})
	if err != nil {
		return nil, nil, fmt.Errorf("while placing glass mesh: %w", err)
	}

	world := geometry.NewList(
		geometry.NewPyramid(
			vec3.T{-400, groundLevel, -1200},
			250,
			100,
			mat33.RotationY(45),
			&material.Lambertian{Albedo: vec3.T{0.4, 0.2, 0.1}},
		),
		&geometry.Plane{Center: vec3.T{0, groundLevel, 0}, Normal: vec3.T{0, 1, 0}, Material: &material.Lambertian{Albedo: vec3.T{0.8, 0.5, 0.2}}},
		shiny,
		glass,
		&geometry.Sphere{Center: vec3.T{-10, sphereRadius + groundLevel, -25}, Radius: sphereRadius, Material: &material.Dielectric{RefractiveIndex: 1.5}},
		&geometry.Sphere{Center: vec3.T{-4, sphereRadius + groundLevel, -20}, Radius: sphereRadius, Material: &material.Lambertian{Albedo: vec3.T{0.1, 0.2, 0.5}}},
		&geometry.Sphere{Center: vec3.T{-21, sphereRadius + groundLevel, -60}, Radius: sphereRadius, Material: &material.Metal{Albedo: vec3.T{0.7, 0.6, 0.5}, Fuzz: 0}},
	)
	scatterSmallSpheres(world, groundLevel, rng, false)

	from := vec3.T{11.4, 1.0, 22.8}
	at := vec3.T{0.75, 0.0, 0.5}
	return world, lookAt(from, at, 15, aspect, 0.001, vec3.SubVV(from, at).Norm()), nil
}

// gemScene lines up three gems of different materials on a grey floor among
// the usual small spheres.
func gemScene(aspect float64, rng *rand.Rand) (*geometry.List, camera.Camera, error) {
	groundLevel := 0.0
	gemScale := 2.5

	world := geometry.NewList(
		geometry.NewQuad(
			[4]vec3.T{
				{-30, groundLevel, -30},
				{30, groundLevel, -30},
				{30, groundLevel, 30},
				{-30, groundLevel, 30},
			},
			mat33.RotationY(90),
			&material.Lambertian{Albedo: vec3.T{0.5, 0.5, 0.5}},
		),
	)

	gems := []struct {
		z float64
		m contact.Material
	}{
		{4, &material.Lambertian{Albedo: vec3.T{0.1, 0.2, 0.5}}},
		{-4, &material.Metal{Albedo: vec3.T{0.7, 0.6, 0.5}, Fuzz: 0}},
		{0, &material.Dielectric{RefractiveIndex: 1.5}},
	}
	for i, g := range gems {
		mesh, err := geometry.NewMesh(Gem, placement(vec3.T{0, groundLevel + gemScale/2, g.z}, gemScale, mat33.Identity()), g.m)
		if err != nil {
			return nil, nil, fmt.Errorf("while placing gem %d: %w", i, err)
		}
		world.Add(mesh)
	}
	scatterSmallSpheres(world, groundLevel, rng, false)

	from := vec3.T{14, 1.5, -22}
	at := vec3.T{0, 1, -0.5}
	return world, lookAt(from, at, 15, aspect, 0.001, vec3.SubVV(from, at).Norm()), nil
}
