package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venuebook",
		Subsystem: "reconcile",
		Name:      "runs_total",
		Help:      "Reconciliation runs by result.",
	}, []string{"result"})

	changesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venuebook",
		Subsystem: "reconcile",
		Name:      "changes_total",
		Help:      "Index entries written by reconciliation, by action.",
	}, []string{"action"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "venuebook",
		Subsystem: "reconcile",
		Name:      "duration_seconds",
		Help:      "Time spent reconciling one venue, lock wait included.",
		Buckets:   prometheus.DefBuckets,
	})

	signalsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "venuebook",
		Subsystem: "reconcile",
		Name:      "signals_dropped_total",
		Help:      "Venue-changed signals dropped because the queue was full.",
	})
)
