package scene

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"row-major/lumen/camera"
	"row-major/lumen/geometry"
	"row-major/lumen/material"
	"row-major/lumen/ray"
	"row-major/lumen/rgbimage"
	"row-major/lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestBands(t *testing.T) {
	testCases := []struct {
		rows, workers int
		want          []Band
	}{
		{0, 4, nil},
		{1, 4, []Band{{0, 1}}},
		{4, 2, []Band{{0, 2}, {2, 4}}},
		{10, 3, []Band{{0, 3}, {3, 6}, {6, 10}}},
		{3, 3, []Band{{0, 1}, {1, 2}, {2, 3}}},
		{5, 1, []Band{{0, 5}}},
	}

	for _, tc := range testCases {
		got := Bands(tc.rows, tc.workers)
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("Bands(%d, %d): diff (-got +want)\n%s", tc.rows, tc.workers, diff)
		}
	}
}

func TestBandsDefaultWorkersCoverRows(t *testing.T) {
	bands := Bands(100, 0)
	if len(bands) == 0 {
		t.Fatalf("No bands for 100 rows")
	}
	next := 0
	for _, b := range bands {
		if b.RowSrc != next {
			t.Fatalf("Band %v does not start at row %d", b, next)
		}
		next = b.RowLim
	}
	if next != 100 {
		t.Errorf("Bands end at row %d, want 100", next)
	}
}

func TestToByte(t *testing.T) {
	testCases := []struct {
		in   float64
		want uint8
	}{
		{0, 0},
		{1, 255},
		{0.25, 127},
		{4, 255},
		{-1, 0},
		{math.NaN(), 0},
		{math.Inf(1), 255},
	}

	for _, tc := range testCases {
		if got := ToByte(tc.in); got != tc.want {
			t.Errorf("ToByte(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRowSeedDistinct(t *testing.T) {
	seen := map[int64]int{}
	for row := 0; row < 1000; row++ {
		s := RowSeed(42, row)
		if prev, ok := seen[s]; ok {
			t.Fatalf("Rows %d and %d share seed %d", prev, row, s)
		}
		seen[s] = row
	}
}

func emptyScene() *Scene {
	return &Scene{World: geometry.NewList()}
}

func TestColourSky(t *testing.T) {
	s := emptyScene()
	rng := rand.New(rand.NewSource(1))

	testCases := []struct {
		desc  string
		slope vec3.T
		want  vec3.T
	}{
		{"straight up", vec3.T{0, 1, 0}, vec3.T{0.5, 0.7, 1.0}},
		{"straight down", vec3.T{0, -1, 0}, vec3.T{1, 1, 1}},
		{"horizon", vec3.T{0, 0, -3}, vec3.T{0.75, 0.85, 1.0}},
	}

	for _, tc := range testCases {
		got := s.Colour(ray.Ray{Slope: tc.slope}, rng, DefaultMaxDepth)
		if diff := cmp.Diff(got, tc.want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("%s: bad colour; diff (-got +want)\n%s", tc.desc, diff)
		}
	}
}

func TestColourWithoutMaterialIsBlack(t *testing.T) {
	s := &Scene{World: geometry.NewList(&geometry.Sphere{Center: vec3.T{0, 0, -2}, Radius: 1})}

	got := s.Colour(ray.Ray{Slope: vec3.T{0, 0, -1}}, rand.New(rand.NewSource(1)), DefaultMaxDepth)
	if diff := cmp.Diff(got, vec3.T{}); diff != "" {
		t.Errorf("Bad colour; diff (-got +want)\n%s", diff)
	}
}

func TestColourDepthLimit(t *testing.T) {
	s := &Scene{World: geometry.NewList(&geometry.Sphere{
		Center:   vec3.T{0, 0, -2},
		Radius:   1,
		Material: &material.Lambertian{Albedo: vec3.T{0.5, 0.5, 0.5}},
	})}

	got := s.Colour(ray.Ray{Slope: vec3.T{0, 0, -1}}, rand.New(rand.NewSource(1)), 0)
	if diff := cmp.Diff(got, vec3.T{}); diff != "" {
		t.Errorf("Bad colour at depth limit 0; diff (-got +want)\n%s", diff)
	}
}

func TestColourDiffuseBounce(t *testing.T) {
	// A diffuse floor facing the sky scatters exactly once into the sky, so
	// every channel is between half the albedo-scaled horizon and zenith
	// colours.
	s := &Scene{World: geometry.NewList(&geometry.Plane{
		Center:   vec3.T{0, -1, 0},
		Normal:   vec3.T{0, 1, 0},
		Material: &material.Lambertian{Albedo: vec3.T{0.5, 0.5, 0.5}},
	})}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		got := s.Colour(ray.Ray{Slope: vec3.T{0, -1, -1}}, rng, DefaultMaxDepth)
		for ch := range got {
			if got[ch] < 0.25 || got[ch] > 0.5 {
				t.Fatalf("Channel %d = %v, want within [0.25, 0.5]", ch, got[ch])
			}
		}
	}
}

func sphereScene() *Scene {
	return &Scene{
		World: geometry.NewList(
			&geometry.Sphere{
				Center:   vec3.T{0, 0, -1},
				Radius:   0.5,
				Material: &material.Lambertian{Albedo: vec3.T{0.5, 0.5, 0.5}},
			},
			&geometry.Sphere{
				Center:   vec3.T{0, -100.5, -1},
				Radius:   100,
				Material: &material.Metal{Albedo: vec3.T{0.8, 0.6, 0.2}, Fuzz: 0.3},
			},
		),
		Camera: camera.NewThinLens(camera.ThinLensOptions{
			LookFrom:        vec3.T{0, 0, 0},
			LookAt:          vec3.T{0, 0, -1},
			Up:              vec3.T{0, 1, 0},
			VFOV:            90,
			Aspect:          4.0 / 3.0,
			FocusDist:       1,
			ShutterDuration: 1,
		}),
	}
}

func render(t *testing.T, workers int) *rgbimage.Image {
	t.Helper()

	img := rgbimage.New(8, 6)
	options := &RenderOptions{
		Samples: 4,
		Workers: workers,
		Seed:    12345,
	}
	if err := RenderScene(context.Background(), sphereScene(), options, img, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return img
}

func TestRenderIndependentOfWorkers(t *testing.T) {
	want := render(t, 1)
	for _, workers := range []int{2, 4, 6} {
		got := render(t, workers)
		if diff := cmp.Diff(got, want); diff != "" {
			t.Errorf("workers=%d: image differs from single-worker render; diff (-got +want)\n%s", workers, diff)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	a := render(t, 3)
	b := render(t, 3)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Same seed gave different images; diff (-got +want)\n%s", diff)
	}
}

func TestRenderSingleSphere(t *testing.T) {
	s := &Scene{
		World: geometry.NewList(&geometry.Sphere{
			Center:   vec3.T{0, 0, -1},
			Radius:   0.5,
			Material: &material.Lambertian{Albedo: vec3.T{0.5, 0.5, 0.5}},
		}),
		Camera: camera.NewThinLens(camera.ThinLensOptions{
			LookFrom:  vec3.T{0, 0, 0},
			LookAt:    vec3.T{0, 0, -1},
			Up:        vec3.T{0, 1, 0},
			VFOV:      90,
			Aspect:    1,
			FocusDist: 1,
		}),
	}

	renderOnce := func(workers int) *rgbimage.Image {
		img := rgbimage.New(2, 2)
		options := &RenderOptions{Samples: 1, Workers: workers, Seed: 42}
		if err := RenderScene(context.Background(), s, options, img, nil); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		return img
	}

	want := renderOnce(1)
	for _, workers := range []int{1, 2} {
		if diff := cmp.Diff(renderOnce(workers), want); diff != "" {
			t.Errorf("workers=%d: image differs; diff (-got +want)\n%s", workers, diff)
		}
	}

	// A diffuse bounce off a lone sphere always escapes to the sky, so every
	// channel is at least half the sky's dimmest component.
	for i, v := range want.Pix {
		if v == 0 {
			t.Errorf("Pixel byte %d is black", i)
		}
	}
}

func TestRenderOrientation(t *testing.T) {
	// Looking at the horizon of an empty world, the top row sees bluer sky
	// than the bottom row.
	s := emptyScene()
	s.Camera = camera.NewThinLens(camera.ThinLensOptions{
		LookFrom:  vec3.T{0, 0, 0},
		LookAt:    vec3.T{0, 0, -1},
		Up:        vec3.T{0, 1, 0},
		VFOV:      90,
		Aspect:    1,
		FocusDist: 1,
	})

	img := rgbimage.New(2, 10)
	if err := RenderScene(context.Background(), s, &RenderOptions{Samples: 1, Workers: 2}, img, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	topR, _, _ := img.At(0, 0)
	bottomR, _, _ := img.At(9, 0)
	if topR >= bottomR {
		t.Errorf("Top row red %d is not below bottom row red %d", topR, bottomR)
	}
}

func TestRenderProgress(t *testing.T) {
	img := rgbimage.New(4, 7)

	calls := [][2]int{}
	progress := func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}

	if err := RenderScene(context.Background(), sphereScene(), &RenderOptions{Samples: 1, Workers: 3}, img, progress); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := [][2]int{}
	for i := 1; i <= 7; i++ {
		want = append(want, [2]int{i, 7})
	}
	if diff := cmp.Diff(calls, want); diff != "" {
		t.Errorf("Bad progress calls; diff (-got +want)\n%s", diff)
	}
}

func TestRenderRejectsBadOptions(t *testing.T) {
	if err := RenderScene(context.Background(), sphereScene(), &RenderOptions{Samples: 0}, rgbimage.New(2, 2), nil); err == nil {
		t.Errorf("RenderScene accepted zero samples")
	}
	if err := RenderScene(context.Background(), sphereScene(), &RenderOptions{Samples: 1}, rgbimage.New(0, 2), nil); err == nil {
		t.Errorf("RenderScene accepted a zero-width image")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RenderScene(ctx, sphereScene(), &RenderOptions{Samples: 1, Workers: 2}, rgbimage.New(4, 4), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RenderScene error = %v, want context.Canceled", err)
	}
}
