package scene

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
)

var (
	sceneKey = tag.MustNewKey("scene")

	raysMeasure        = stats.Int64("lumen/rays", "Rays cast, including scattered rays", stats.UnitDimensionless)
	pixelsMeasure      = stats.Int64("lumen/pixels", "Pixels finished", stats.UnitDimensionless)
	bandLatencyMeasure = stats.Float64("lumen/band_latency", "Wall time to render one band", stats.UnitMilliseconds)

	raysView = &view.View{
		Name:        "lumen/rays",
		Description: "Counter of rays cast",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     raysMeasure,
		Aggregation: view.Sum(),
	}
	pixelsView = &view.View{
		Name:        "lumen/pixels",
		Description: "Counter of pixels finished",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     pixelsMeasure,
		Aggregation: view.Sum(),
	}
	bandLatencyView = &view.View{
		Name:        "lumen/band_latency",
		Description: "Distribution of band render times",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     bandLatencyMeasure,
		Aggregation: view.Distribution(10, 100, 1000, 10000, 60000, 600000),
	}
)

// RegisterViews makes the render measures visible to opencensus exporters.
func RegisterViews() error {
	return view.Register(raysView, pixelsView, bandLatencyView)
}

// rowCounter reports finished rows through whichever OpenTelemetry meter
// provider is installed.  With none installed it is a no-op.
func rowCounter() metric.Int64Counter {
	meter := global.Meter("row-major/lumen/scene")
	return metric.Must(meter).NewInt64Counter(
		"lumen.rows",
		metric.WithDescription("Image rows finished"),
	)
}
