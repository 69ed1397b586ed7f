package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// shareTokensTotal counts share token attempts by result
	shareTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chartloom_share_tokens_total",
		Help: "Share token encodes by result (ok, too_large, error)",
	}, []string{"result"})

	// restoresTotal counts token restores by result
	restoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chartloom_restores_total",
		Help: "Token restores by result (ok, failed)",
	}, []string{"result"})

	// planBuildSeconds tracks chart plan build latency
	planBuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chartloom_plan_build_seconds",
		Help:    "Chart plan build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	})
)
