package scene

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"row-major/lumen/camera"
	"row-major/lumen/geometry"
	"row-major/lumen/ray"
	"row-major/lumen/rgbimage"
	"row-major/lumen/vmath/vec3"
)

type Scene struct {
	World  geometry.Geometry
	Camera camera.Camera
}

const (
	DefaultMaxDepth = 50

	// Scattered rays start slightly off the surface to avoid shadow acne.
	tMin = 0.001
)

// Colour estimates the radiance arriving along r.
func (s *Scene) Colour(r ray.Ray, rng *rand.Rand, maxDepth int) vec3.T {
	c, _ := s.sampleRay(r, rng, maxDepth)
	return c
}

// sampleRay follows r through at most maxDepth scattering events and also
// reports how many rays were cast against the world.
func (s *Scene) sampleRay(r ray.Ray, rng *rand.Rand, maxDepth int) (vec3.T, int) {
	throughput := vec3.T{1.0, 1.0, 1.0}

	for depth := 0; ; depth++ {
		hit := s.World.RayInto(ray.Beyond(r, tMin))
		if !hit.Hit() {
			return vec3.MulVV(throughput, sky(r)), depth + 1
		}

		if hit.Material == nil || depth >= maxDepth {
			return vec3.T{}, depth + 1
		}

		attenuation, scattered, ok := hit.Material.Scatter(r, hit, rng)
		if !ok {
			return vec3.T{}, depth + 1
		}

		throughput = vec3.MulVV(throughput, attenuation)
		r = scattered
	}
}

// sky is a vertical gradient from white at the horizon to light blue overhead.
func sky(r ray.Ray) vec3.T {
	unit := vec3.Normalize(r.Slope)
	t := 0.5 * (unit[1] + 1.0)
	return vec3.Lerp(t, vec3.T{1.0, 1.0, 1.0}, vec3.T{0.5, 0.7, 1.0})
}

type RenderOptions struct {
	// Camera rays per pixel.  Must be positive.
	Samples int

	// Scattering events followed per camera ray.  Zero means DefaultMaxDepth.
	MaxDepth int

	// Number of row bands rendered in parallel.  Zero means runtime.NumCPU().
	Workers int

	Seed int64

	// Used only to label metrics.
	SceneName string
}

// ProgressFunction is told how many rows are finished.  Calls are serialized.
type ProgressFunction func(rowsDone, rowsTotal int)

// RenderScene fills img.  Rows are split into contiguous bands, one goroutine
// per band, and each band writes only its own rows of img.
//
// Every row draws from its own generator seeded from (options.Seed, row), so
// the image depends only on the seed and not on the number of workers.
func RenderScene(ctx context.Context, s *Scene, options *RenderOptions, img *rgbimage.Image, progress ProgressFunction) error {
	tracer := otel.Tracer("row-major/lumen/scene")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "RenderScene")
	defer span.End()

	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("bad image dimensions %dx%d", img.Width, img.Height)
	}
	if options.Samples <= 0 {
		return fmt.Errorf("bad sample count %d", options.Samples)
	}

	maxDepth := options.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	bands := Bands(img.Height, options.Workers)
	span.SetAttributes(
		attribute.Int("width", img.Width),
		attribute.Int("height", img.Height),
		attribute.Int("samples", options.Samples),
		attribute.Int("bands", len(bands)),
	)

	ctx, err := tag.New(ctx, tag.Insert(sceneKey, options.SceneName))
	if err != nil {
		return fmt.Errorf("while tagging context: %w", err)
	}

	rows := rowCounter()

	rowsDone := 0
	// progressMutex locks rowsDone and serializes calls to progress.
	progressMutex := sync.Mutex{}
	rowFinished := func(ctx context.Context) {
		rows.Add(ctx, 1)

		progressMutex.Lock()
		defer progressMutex.Unlock()
		rowsDone++
		if progress != nil {
			progress(rowsDone, img.Height)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, b := range bands {
		worker := &bandWorker{
			scene:       s,
			index:       i,
			band:        b,
			imgRows:     img.Height,
			imgCols:     img.Width,
			dst:         img.Rows(b.RowSrc, b.RowLim),
			samples:     options.Samples,
			maxDepth:    maxDepth,
			seed:        options.Seed,
			rowFinished: rowFinished,
		}
		g.Go(func() error {
			return worker.render(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return fmt.Errorf("while rendering bands: %w", err)
	}

	return nil
}

// Band is the half-open row range [RowSrc, RowLim).
type Band struct {
	RowSrc, RowLim int
}

// Bands splits rows into at most workers contiguous bands of equal size, with
// the last band absorbing the remainder.  There are never more bands than
// rows, and workers <= 0 means one band per CPU.
func Bands(rows, workers int) []Band {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > rows {
		workers = rows
	}
	if workers == 0 {
		return nil
	}

	workUnit := rows / workers
	bands := make([]Band, workers)
	for i := range bands {
		bands[i] = Band{RowSrc: i * workUnit, RowLim: (i + 1) * workUnit}
	}
	bands[workers-1].RowLim = rows
	return bands
}

type bandWorker struct {
	scene *Scene
	index int
	band  Band

	// These are the dimensions of the overall image, not just the band.
	imgRows int
	imgCols int

	// dst holds only the band's rows.
	dst *rgbimage.Image

	samples  int
	maxDepth int
	seed     int64

	rowFinished func(context.Context)
}

func (w *bandWorker) render(ctx context.Context) error {
	tracer := otel.Tracer("row-major/lumen/scene")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "bandWorker.render")
	defer span.End()
	span.SetAttributes(
		attribute.Int("band", w.index),
		attribute.Int("row-src", w.band.RowSrc),
		attribute.Int("row-lim", w.band.RowLim),
	)

	start := time.Now()
	for row := w.band.RowSrc; row < w.band.RowLim; row++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cancelled")
			return fmt.Errorf("while rendering row %d: %w", row, err)
		}

		rays := w.renderRow(row)
		stats.Record(ctx, raysMeasure.M(int64(rays)), pixelsMeasure.M(int64(w.imgCols)))
		w.rowFinished(ctx)
	}
	stats.Record(ctx, bandLatencyMeasure.M(float64(time.Since(start))/float64(time.Millisecond)))

	return nil
}

func (w *bandWorker) renderRow(row int) int {
	rng := rand.New(rand.NewSource(RowSeed(w.seed, row)))
	rays := 0

	// Image row 0 is the top of the picture, but the camera's t runs upward.
	j := w.imgRows - row - 1
	for i := 0; i < w.imgCols; i++ {
		sum := vec3.T{}
		for s := 0; s < w.samples; s++ {
			u := (float64(i) + rng.Float64()) / float64(w.imgCols)
			v := (float64(j) + rng.Float64()) / float64(w.imgRows)
			r := w.scene.Camera.GetRay(u, v, rng)

			c, n := w.scene.sampleRay(r, rng, w.maxDepth)
			sum = vec3.AddVV(sum, c)
			rays += n
		}
		c := vec3.DivVS(sum, float64(w.samples))

		w.dst.Set(row-w.band.RowSrc, i, ToByte(c[0]), ToByte(c[1]), ToByte(c[2]))
	}

	return rays
}

// RowSeed derives the generator seed for one image row.
func RowSeed(seed int64, row int) int64 {
	return int64(uint64(seed) ^ (uint64(row)+1)*0x9e3779b97f4a7c15)
}

// ToByte gamma-corrects a linear channel value (gamma 2) and quantizes it.
// Out-of-range input, including NaN, is clamped to [0, 255].
func ToByte(linear float64) uint8 {
	v := 255.99 * math.Sqrt(linear)
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
