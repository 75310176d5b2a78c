package main

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"row-major/lumen/affinetransform"
	"row-major/lumen/bvh"
	"row-major/lumen/geometry"
	"row-major/lumen/ray"
	"row-major/lumen/rgbimage"
	"row-major/lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

func TestParseGCSPath(t *testing.T) {
	testCases := []struct {
		in         string
		wantBucket string
		wantObject string
		wantOK     bool
		wantErr    bool
	}{
		{"/tmp/out.png", "", "", false, false},
		{"out.png", "", "", false, false},
		{"gs://renders/out.png", "renders", "out.png", true, false},
		{"gs://renders/2021/06/out.png", "renders", "2021/06/out.png", true, false},
		{"gs://renders", "", "", true, true},
		{"gs://renders/", "", "", true, true},
		{"gs:///out.png", "", "", true, true},
	}

	for _, tc := range testCases {
		bucket, object, ok, err := parseGCSPath(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseGCSPath(%q) error = %v, want error %v", tc.in, err, tc.wantErr)
			continue
		}
		if bucket != tc.wantBucket || object != tc.wantObject || ok != tc.wantOK {
			t.Errorf("parseGCSPath(%q) = (%q, %q, %v), want (%q, %q, %v)", tc.in, bucket, object, ok, tc.wantBucket, tc.wantObject, tc.wantOK)
		}
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("a/b.png"); got != "image/png" {
		t.Errorf("contentType(a/b.png) = %q, want image/png", got)
	}
	if got := contentType("a/b.snapshot"); got != "application/octet-stream" {
		t.Errorf("contentType(a/b.snapshot) = %q, want application/octet-stream", got)
	}
}

func TestProgressReporterTerminal(t *testing.T) {
	status := &renderStatus{}
	out := &bytes.Buffer{}
	p := newProgressReporter(status, out, true, time.Hour)

	p.update(1, 4)
	p.update(2, 4)
	p.update(4, 4)

	want := "\r1/4 25%\r2/4 50%\r4/4 100%\n"
	if diff := cmp.Diff(out.String(), want); diff != "" {
		t.Errorf("Bad terminal output; diff (-got +want)\n%s", diff)
	}

	d := status.data()
	if d.RowsDone != 4 || d.RowsTotal != 4 || d.Percent != 100 {
		t.Errorf("Bad status after final update: %+v", d)
	}
}

func TestProgressReporterLogOnly(t *testing.T) {
	status := &renderStatus{}
	out := &bytes.Buffer{}
	p := newProgressReporter(status, out, false, time.Hour)

	p.update(1, 2)
	p.update(2, 2)

	if out.Len() != 0 {
		t.Errorf("Non-terminal reporter wrote %q to its output", out.String())
	}
	if d := status.data(); d.RowsDone != 2 {
		t.Errorf("Bad rows done; got %d, want 2", d.RowsDone)
	}
}

func TestReadiness(t *testing.T) {
	status := &renderStatus{}
	if err := status.ready(); err == nil {
		t.Errorf("Status ready before building started")
	}
	status.setPhase("building")
	if err := status.ready(); err == nil {
		t.Errorf("Status ready while building")
	}
	status.setPhase("tracing")
	if err := status.ready(); err != nil {
		t.Errorf("Status not ready while tracing: %v", err)
	}
}

func TestProgressPage(t *testing.T) {
	status := &renderStatus{scene: "random", width: 64, height: 48, samples: 10, seed: 3, started: time.Now()}
	status.setPhase("tracing")
	status.setRows(12, 48)

	mux := http.NewServeMux()
	status.RegisterDebugHandlers(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/lumen/progress", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Bad status code %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Render of random", "64x48", "Rows: 12/48 (25%)"} {
		if !strings.Contains(body, want) {
			t.Errorf("Progress page does not contain %q:\n%s", want, body)
		}
	}
}

func TestAccelerate(t *testing.T) {
	plane := &geometry.Plane{Center: vec3.T{0, -1, 0}, Normal: vec3.T{0, 1, 0}}
	list := geometry.NewList(
		&geometry.Sphere{Center: vec3.T{0, 0, -5}, Radius: 1},
		plane,
		&geometry.Sphere{Center: vec3.T{3, 0, -5}, Radius: 1},
	)

	world, err := accelerate(context.Background(), list, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	top, ok := world.(*geometry.List)
	if !ok {
		t.Fatalf("accelerate returned %T, want *geometry.List", world)
	}
	if len(top.Elements) != 2 {
		t.Fatalf("Bad top-level element count; got %d, want 2", len(top.Elements))
	}
	if _, ok := top.Elements[0].(*bvh.Node); !ok {
		t.Errorf("First element is %T, want *bvh.Node", top.Elements[0])
	}
	if top.Elements[1] != geometry.Geometry(plane) {
		t.Errorf("Second element is %v, want the plane", top.Elements[1])
	}

	for _, q := range []struct {
		origin, slope vec3.T
	}{
		{vec3.T{0, 0, 0}, vec3.T{0, 0, -1}},
		{vec3.T{3, 0, 0}, vec3.T{0, 0, -1}},
		{vec3.T{0, 0, 0}, vec3.T{0, -1, 0}},
	} {
		query := ray.RaySegment{
			TheRay:     ray.Ray{Point: q.origin, Slope: q.slope},
			TheSegment: ray.Span{Lo: 0, Hi: math.Inf(1)},
		}
		got, want := world.RayInto(query), list.RayInto(query)
		if got.T != want.T {
			t.Errorf("Query from %v: accelerated t=%v, flat t=%v", q.origin, got.T, want.T)
		}
	}
}

func TestAccelerateAllBounded(t *testing.T) {
	list := geometry.NewList(&geometry.Sphere{Radius: 1})

	world, err := accelerate(context.Background(), list, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := world.(*bvh.Node); !ok {
		t.Errorf("accelerate returned %T, want *bvh.Node", world)
	}
}

func TestWritePNGResizes(t *testing.T) {
	oldWidth, oldHeight := *width, *height
	defer func() { *width, *height = oldWidth, oldHeight }()
	*width, *height = 8, 0

	img := rgbimage.New(4, 3)
	p := filepath.Join(t.TempDir(), "sub", "out.png")
	if err := writePNG(context.Background(), p, img); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	f, err := os.Open(p)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("Unexpected error decoding PNG: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 3 {
		t.Errorf("Bad PNG size %dx%d, want 8x3", cfg.Width, cfg.Height)
	}
}

func TestWriteSnapshotLocal(t *testing.T) {
	img := rgbimage.New(2, 2)
	img.Set(1, 1, 9, 8, 7)
	info := rgbimage.SnapshotInfo{Samples: 3, Seed: 4, Scene: "default"}

	p := filepath.Join(t.TempDir(), "out.snapshot")
	if err := writeSnapshot(context.Background(), p, img, info); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	gotImg, gotInfo, err := rgbimage.ReadSnapshotFromFile(p)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(gotImg, img); diff != "" {
		t.Errorf("Bad image; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(gotInfo, info); diff != "" {
		t.Errorf("Bad info; diff (-got +want)\n%s", diff)
	}
}

func TestAccelerateSplitsMeshes(t *testing.T) {
	mesh, err := geometry.NewMesh(&geometry.MeshData{
		Vertices: []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Normals:  []vec3.T{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Faces:    [][3]int{{0, 1, 2}, {1, 3, 2}},
	}, affinetransform.Identity(), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	world, err := accelerate(context.Background(), geometry.NewList(mesh), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	root, ok := world.(*bvh.Node)
	if !ok {
		t.Fatalf("accelerate returned %T, want *bvh.Node", world)
	}
	if got := len(root.Leaves()); got != 2 {
		t.Errorf("Bad leaf count; got %d, want one per face", got)
	}
}
