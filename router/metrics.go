package router

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	tileLabel    = "tile"
)

var (
	fragmentsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lastiler_fragments_moved",
		Help: "The number of split fragments moved into a tile.",
	}, []string{
		tileLabel,
	})

	filesCopied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lastiler_files_copied",
		Help: "The number of input files copied as is into a tile.",
	}, []string{
		tileLabel,
	})

	splitErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lastiler_split_errors",
		Help: "The errors that occured while splitting an input file.",
	}, []string{
		errTypeLabel,
	})

	splitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lastiler_split_latency",
		Help:    "The time to split an input file and move its fragments.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

func instrumentSplit(split func() error) error {
	start := time.Now()
	err := split()
	splitLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		splitErrors.
			With(prometheus.Labels{
				errTypeLabel: errors.Type(err),
			}).
			Inc()
	}
	return err
}

func instrumentFragmentMoved(tile string) {
	fragmentsMoved.
		With(prometheus.Labels{tileLabel: tile}).
		Inc()
}

func instrumentFileCopied(tile string) {
	filesCopied.
		With(prometheus.Labels{tileLabel: tile}).
		Inc()
}
