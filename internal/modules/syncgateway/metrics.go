package syncgateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venuebook",
		Subsystem: "sync",
		Name:      "published_total",
		Help:      "Outbound sync events by action and result.",
	}, []string{"action", "result"})

	consumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venuebook",
		Subsystem: "sync",
		Name:      "consumed_total",
		Help:      "Inbound sync messages by action and result.",
	}, []string{"action", "result"})

	feedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "venuebook",
		Subsystem: "sync",
		Name:      "feed_clients",
		Help:      "Connected websocket feed clients.",
	})
)
