package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sniper_scans_total",
		Help: "Number of scan requests by outcome.",
	}, []string{"status"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sniper_scan_duration_seconds",
		Help:    "Wall time of full scan pipeline runs.",
		Buckets: prometheus.DefBuckets,
	})
)
