// renderer draws one of the built-in scenes with a stochastic path tracer and
// writes it out as a PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	runtimepprof "runtime/pprof"
	"syscall"
	"time"

	"row-major/lumen/bvh"
	"row-major/lumen/geometry"
	"row-major/lumen/healthz"
	"row-major/lumen/ray"
	"row-major/lumen/rgbimage"
	"row-major/lumen/scene"
	"row-major/lumen/scenes"

	"cloud.google.com/go/profiler"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudmetrics "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/image/draw"
	"golang.org/x/term"
)

var (
	sceneName       = flag.String("scene", scenes.DefaultName, "Scene preset to render.")
	nx              = flag.Int("nx", 64, "Rendered image width, in pixels.")
	ny              = flag.Int("ny", 48, "Rendered image height, in pixels.")
	samplesPerPixel = flag.Int("samples-per-pixel", 100, "Camera rays averaged into each pixel.")
	seed            = flag.Int64("seed", 0, "Random seed.  If unset, one is picked from the clock.")
	width           = flag.Int("width", 0, "If nonzero, resize the output to this width.")
	height          = flag.Int("height", 0, "If nonzero, resize the output to this height.")
	outputFile      = flag.String("out", filepath.Join(os.TempDir(), "lumen", "out.png"), "Output PNG path.  gs://bucket/object writes to Cloud Storage.")
	maxDepth        = flag.Int("max-depth", scene.DefaultMaxDepth, "Maximum number of bounces to follow.")
	workers         = flag.Int("workers", 0, "Number of row bands rendered in parallel.  Zero means one per CPU.")
	useBVH          = flag.Bool("use-bvh", true, "Accelerate ray queries with a bounding volume hierarchy.")
	legacyBVHSplit  = flag.Bool("legacy-bvh-split", false, "Build the hierarchy with the old split that drops midpoint items.")
	snapshotFile    = flag.String("snapshot", "", "If set, also write the raw render snapshot here.  gs:// paths are supported.")
	fromSnapshot    = flag.String("from-snapshot", "", "If set, skip rendering and re-encode this snapshot.")

	userAgent   = flag.String("user-agent", "row-major.net/lumen", "User-Agent for Cloud Storage requests.")
	debugListen = flag.String("debug-listen", "", "Server address:port for debug endpoint.  Empty disables it.")

	enableProfiling      = flag.Bool("enable-profiling", false, "Enable the Cloud Profiler agent?")
	enableMetrics        = flag.Bool("enable-metrics", false, "Export render metrics to Cloud Monitoring?")
	monitoring           = flag.Bool("monitoring", false, "Enable monitoring?")
	monitoringProject    = flag.String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	monitoringTraceRatio = flag.Float64("monitoring-trace-ratio", 1.0, "What ratio of traces should be exported?")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile = flag.String("mem-profile", "", "write memory profile to `file`")
)

func main() {
	flag.Parse()

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})
	if !seedSet {
		*seed = time.Now().UnixNano()
	}

	glog.Infof("flags:")
	glog.Infof("scene: %v", *sceneName)
	glog.Infof("nx: %v", *nx)
	glog.Infof("ny: %v", *ny)
	glog.Infof("samples-per-pixel: %v", *samplesPerPixel)
	glog.Infof("seed: %v", *seed)
	glog.Infof("width: %v", *width)
	glog.Infof("height: %v", *height)
	glog.Infof("out: %v", *outputFile)
	glog.Infof("max-depth: %v", *maxDepth)
	glog.Infof("workers: %v", *workers)
	glog.Infof("use-bvh: %v", *useBVH)
	glog.Infof("legacy-bvh-split: %v", *legacyBVHSplit)
	glog.Infof("snapshot: %v", *snapshotFile)
	glog.Infof("from-snapshot: %v", *fromSnapshot)

	glog.Infof("user-agent: %v", *userAgent)
	glog.Infof("debug-listen: %v", *debugListen)

	glog.Infof("enable-profiling: %v", *enableProfiling)
	glog.Infof("enable-metrics: %v", *enableMetrics)
	glog.Infof("monitoring: %v", *monitoring)
	glog.Infof("monitoring-project: %v", *monitoringProject)
	glog.Infof("monitoring-trace-ratio: %v", *monitoringTraceRatio)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Fatalf("Could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := runtimepprof.StartCPUProfile(f); err != nil {
			glog.Fatalf("Could not start CPU profile: %v", err)
		}
		defer runtimepprof.StopCPUProfile()
	}

	if *enableProfiling {
		if err := profiler.Start(profiler.Config{
			Service:        "lumen",
			ServiceVersion: "0.0.1",
		}); err != nil {
			glog.Fatalf("Error initializing profiler: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
		<-signalCh
		glog.Infof("Interrupted, abandoning render")
		cancel()
	}()

	outPath, err := do(ctx)
	if err != nil {
		glog.Flush()
		glog.Fatalf("Error: %v", err)
	}
	fmt.Println(outPath)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Fatalf("Could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := runtimepprof.WriteHeapProfile(f); err != nil {
			glog.Fatalf("Could not write memory profile: %v", err)
		}
	}
}

func do(ctx context.Context) (string, error) {
	if *monitoring {
		metricsOpts := []cloudmetrics.Option{}
		traceOpts := []cloudtrace.Option{}
		if *monitoringProject != "" {
			metricsOpts = append(metricsOpts, cloudmetrics.WithProjectID(*monitoringProject))
			traceOpts = append(traceOpts, cloudtrace.WithProjectID(*monitoringProject))
		}

		_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*monitoringTraceRatio)))
		if err != nil {
			return "", fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
		}
		defer traceShutdown()

		pusher, err := cloudmetrics.InstallNewPipeline(metricsOpts)
		if err != nil {
			return "", fmt.Errorf("while installing Cloud Metrics OpenTelemetry meter pipeline: %w", err)
		}
		defer pusher.Stop(ctx)
	}

	if *enableMetrics {
		if err := scene.RegisterViews(); err != nil {
			return "", fmt.Errorf("while registering metric views: %w", err)
		}

		stackdriverOpts := stackdriver.Options{
			MetricPrefix:      "lumen",
			ReportingInterval: 60 * time.Second,
		}
		if *monitoringProject != "" {
			stackdriverOpts.ProjectID = *monitoringProject
		}
		exporter, err := stackdriver.NewExporter(stackdriverOpts)
		if err != nil {
			return "", fmt.Errorf("while initializing metrics exporter: %w", err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			return "", fmt.Errorf("while starting metrics exporter: %w", err)
		}
		defer exporter.Flush()
		defer exporter.StopMetricsExporter()
	}

	status := &renderStatus{
		scene:   *sceneName,
		width:   *nx,
		height:  *ny,
		samples: *samplesPerPixel,
		seed:    *seed,
		started: time.Now(),
	}

	if *debugListen != "" {
		startDebugServer(status)
	}

	var img *rgbimage.Image
	var info rgbimage.SnapshotInfo
	if *fromSnapshot != "" {
		var err error
		img, info, err = rgbimage.ReadSnapshotFromFile(*fromSnapshot)
		if err != nil {
			return "", fmt.Errorf("while loading snapshot: %w", err)
		}
		glog.Infof("Loaded %dx%d snapshot of scene %q (seed %d, %d samples)", img.Width, img.Height, info.Scene, info.Seed, info.Samples)
	} else {
		var err error
		img, info, err = render(ctx, status)
		if err != nil {
			return "", err
		}
	}

	status.setPhase("writing")
	writeStart := time.Now()

	if *snapshotFile != "" {
		if err := writeSnapshot(ctx, *snapshotFile, img, info); err != nil {
			return "", err
		}
	}

	if err := writePNG(ctx, *outputFile, img); err != nil {
		return "", err
	}
	glog.V(1).Infof("Wrote output in %v", time.Since(writeStart))

	status.setPhase("done")
	return *outputFile, nil
}

func startDebugServer(status *renderStatus) {
	debugServeMux := http.NewServeMux()
	debugServeMux.Handle("/healthz", healthz.New(nil))
	debugServeMux.Handle("/readyz", healthz.New(status.ready))
	debugServeMux.HandleFunc("/debug/pprof/", pprof.Index)
	debugServeMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	debugServeMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	debugServeMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	debugServeMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	status.RegisterDebugHandlers(debugServeMux)

	debugServer := &http.Server{
		Addr:    *debugListen,
		Handler: debugServeMux,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := debugServer.ListenAndServe(); err != nil {
			glog.Fatalf("Debug server died: %v", err)
		}
	}()
}

func render(ctx context.Context, status *renderStatus) (*rgbimage.Image, rgbimage.SnapshotInfo, error) {
	info := rgbimage.SnapshotInfo{
		Samples: *samplesPerPixel,
		Seed:    *seed,
		Scene:   *sceneName,
	}

	status.setPhase("building")
	buildStart := time.Now()

	rng := rand.New(rand.NewSource(*seed))
	aspect := float64(*nx) / float64(*ny)

	list, cam, err := scenes.ByName(*sceneName, aspect, rng)
	if errors.Is(err, scenes.ErrUnknownScene) {
		glog.Warningf("Unknown scene %q (have %v), falling back to %q", *sceneName, scenes.Names(), scenes.DefaultName)
		info.Scene = scenes.DefaultName
		list, cam, err = scenes.ByName(scenes.DefaultName, aspect, rng)
	}
	if err != nil {
		return nil, info, fmt.Errorf("while building scene: %w", err)
	}

	world, err := accelerate(ctx, list, rng)
	if err != nil {
		return nil, info, err
	}
	glog.V(1).Infof("Built world in %v", time.Since(buildStart))

	status.setPhase("tracing")
	traceStart := time.Now()

	reporter := newProgressReporter(status, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), 10*time.Second)

	img := rgbimage.New(*nx, *ny)
	options := &scene.RenderOptions{
		Samples:   *samplesPerPixel,
		MaxDepth:  *maxDepth,
		Workers:   *workers,
		Seed:      *seed,
		SceneName: info.Scene,
	}
	s := &scene.Scene{World: world, Camera: cam}
	if err := scene.RenderScene(ctx, s, options, img, reporter.update); err != nil {
		return nil, info, fmt.Errorf("while rendering scene: %w", err)
	}
	glog.V(1).Infof("Traced in %v", time.Since(traceStart))

	return img, info, nil
}

// accelerate puts everything that has a bounding box under a BVH.  Unbounded
// geometry, such as planes, stays in a flat list beside it.
func accelerate(ctx context.Context, list *geometry.List, rng *rand.Rand) (geometry.Geometry, error) {
	if !*useBVH {
		return list, nil
	}

	shutter := ray.Span{Lo: 0, Hi: scenes.ShutterDuration}

	// Meshes are split into their faces so the hierarchy can separate them.
	items := []geometry.Geometry{}
	for _, g := range list.Elements {
		if m, ok := g.(*geometry.Mesh); ok {
			items = append(items, m.Triangles()...)
			continue
		}
		items = append(items, g)
	}

	bounded := []geometry.Geometry{}
	unbounded := []geometry.Geometry{}
	for _, g := range items {
		_, err := g.GetAABox(shutter)
		switch {
		case err == nil:
			bounded = append(bounded, g)
		case errors.Is(err, geometry.ErrNoBoundingBox):
			unbounded = append(unbounded, g)
		default:
			return nil, fmt.Errorf("while bounding scene element: %w", err)
		}
	}

	if len(bounded) == 0 {
		return list, nil
	}

	opts := []bvh.Option{}
	if *legacyBVHSplit {
		opts = append(opts, bvh.WithLegacyMidpointDrop())
	}

	root, err := bvh.Build(ctx, bounded, shutter, rng, opts...)
	if err != nil {
		return nil, fmt.Errorf("while building BVH: %w", err)
	}

	stats := root.Stats()
	glog.V(1).Infof("BVH over %d items: %d nodes, %d leaves, depth %d", len(bounded), stats.Nodes, stats.Leaves, stats.MaxDepth)

	if len(unbounded) == 0 {
		return root, nil
	}
	return geometry.NewList(append([]geometry.Geometry{root}, unbounded...)...), nil
}

func writeSnapshot(ctx context.Context, p string, img *rgbimage.Image, info rgbimage.SnapshotInfo) error {
	out, err := createOutput(ctx, p)
	if err != nil {
		return fmt.Errorf("while opening snapshot output: %w", err)
	}

	if err := rgbimage.WriteSnapshot(out, img, info); err != nil {
		out.Close()
		return fmt.Errorf("while writing snapshot: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing snapshot output: %w", err)
	}
	return nil
}

func writePNG(ctx context.Context, p string, img *rgbimage.Image) error {
	var final image.Image = img.ToRGBA()

	if (*width != 0 && *width != img.Width) || (*height != 0 && *height != img.Height) {
		w, h := *width, *height
		if w == 0 {
			w = img.Width
		}
		if h == 0 {
			h = img.Height
		}
		resized := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(resized, resized.Bounds(), final, final.Bounds(), draw.Src, nil)
		final = resized
	}

	out, err := createOutput(ctx, p)
	if err != nil {
		return err
	}

	if err := png.Encode(out, final); err != nil {
		out.Close()
		return fmt.Errorf("while encoding PNG: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing output: %w", err)
	}
	return nil
}
