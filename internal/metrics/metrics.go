package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatches counts mark/unmark commands by outcome.
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "console",
		Name:      "attendance_dispatch_total",
		Help:      "Mark and unmark commands sent upstream, by direction, action and result.",
	}, []string{"direction", "action", "result"})

	// Scans counts scanner submissions by result.
	Scans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "console",
		Name:      "scan_total",
		Help:      "Scanned payloads by result.",
	}, []string{"result"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "console",
		Name:      "upstream_request_seconds",
		Help:      "Latency of calls to the upstream attendance API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)
