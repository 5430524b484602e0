// Package metrics provides Prometheus instrumentation for GuardPay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransferDecisions counts transfer pipeline outcomes by status.
	TransferDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardpay",
			Name:      "transfer_decisions_total",
			Help:      "Total transfer decisions by outcome status.",
		},
		[]string{"status"},
	)

	// TransferDuration observes end-to-end pipeline latency.
	TransferDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "guardpay",
			Name:      "transfer_pipeline_duration_seconds",
			Help:      "Transfer risk pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RiskScores observes the final capped risk score distribution.
	RiskScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "guardpay",
			Name:      "transfer_risk_score",
			Help:      "Final risk score per evaluated transfer.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// Escrows counts escrow operations by resulting status.
	Escrows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardpay",
			Name:      "escrows_total",
			Help:      "Total escrow operations by status.",
		},
		[]string{"status"},
	)

	// Cards counts ghost card lifecycle events.
	Cards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardpay",
			Name:      "cards_total",
			Help:      "Total ghost card events.",
		},
		[]string{"event"},
	)
)
