package dispatch

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	outcomeLabel = "outcome"
	stateLabel   = "state"
)

var (
	routedTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lastiler_tasks",
		Help: "The number of routed input files.",
	}, []string{
		outcomeLabel,
	})

	taskErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lastiler_task_errors",
		Help: "The errors that occured while routing an input file.",
	}, []string{
		errTypeLabel,
	})

	taskLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lastiler_task_latency",
		Help:    "The time to route an input file.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		outcomeLabel,
	})

	workers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lastiler_workers",
		Help: "The number of workers by state.",
	}, []string{
		stateLabel,
	})
)

func instrumentResult(r Result, start time.Time) {
	outcome := r.Outcome.Kind.String()

	taskLatency.
		With(prometheus.Labels{outcomeLabel: outcome}).
		Observe(time.Since(start).Seconds())

	routedTasks.
		With(prometheus.Labels{outcomeLabel: outcome}).
		Inc()

	if r.Err != nil {
		taskErrors.
			With(prometheus.Labels{errTypeLabel: errors.Type(r.Err)}).
			Inc()
	}
}

func instrumentWorkerState(from, to WorkerState) {
	workers.With(prometheus.Labels{stateLabel: from.String()}).Dec()
	workers.With(prometheus.Labels{stateLabel: to.String()}).Inc()
}

func instrumentWorkerStart() {
	workers.With(prometheus.Labels{stateLabel: Idle.String()}).Inc()
}
