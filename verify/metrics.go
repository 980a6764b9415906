package verify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	points = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lastiler_points",
		Help: "The number of points before and after tiling.",
	}, []string{"side"})

	files = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lastiler_files",
		Help: "The number of files before and after tiling.",
	}, []string{"side"})
)

func instrumentSummary(s Summary) {
	points.WithLabelValues("input").Set(float64(s.InputPoints))
	points.WithLabelValues("output").Set(float64(s.OutputPoints))
	files.WithLabelValues("input").Set(float64(s.InputFiles))
	files.WithLabelValues("output").Set(float64(s.OutputFiles))
}
