// Package observability exposes the Prometheus metrics the risk inference
// service reports: inference duration, rate-gate outcomes, rolling history
// depth, and fan-out subscriber count, as `promauto`-registered
// package-level vars namespaced under "riskcore".
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Cascade / Inference Metrics ───────────────────────────────────────────

// InferenceDuration tracks how long a single cascade inference takes.
var InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "riskcore",
	Subsystem: "cascade",
	Name:      "inference_duration_ms",
	Help:      "Duration of a single cascade inference, in milliseconds.",
	Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
})

// ResilienceScore tracks the most recently computed resilience score.
var ResilienceScore = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "cascade",
	Name:      "resilience_score",
	Help:      "Most recently computed resilience score (0-100).",
})

// DomainProbabilityOfHigh tracks each domain's most recent probability of
// high risk.
var DomainProbabilityOfHigh = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "cascade",
	Name:      "probability_of_high",
	Help:      "Most recently computed probability of high risk, by domain.",
}, []string{"domain"})

// ─── Rate Gate Metrics ──────────────────────────────────────────────────────

// RateGateAdmitted tracks ingestion-triggered inferences admitted by the
// rate gate.
var RateGateAdmitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "riskcore",
	Subsystem: "rate_gate",
	Name:      "admitted_total",
	Help:      "Total inferences admitted by the rate gate.",
})

// RateGateRejected tracks ingestion-triggered inferences rejected by the
// rate gate.
var RateGateRejected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "riskcore",
	Subsystem: "rate_gate",
	Name:      "rejected_total",
	Help:      "Total inferences rejected by the rate gate.",
})

// ─── State Manager Metrics ──────────────────────────────────────────────────

// RollingHistoryLength tracks the current length of the bounded prediction
// history.
var RollingHistoryLength = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "state",
	Name:      "rolling_history_length",
	Help:      "Current number of predictions held in the rolling history window.",
})

// DataFreshnessConfidence tracks the blended data-freshness confidence
// across the three domain slots.
var DataFreshnessConfidence = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "state",
	Name:      "data_freshness_confidence",
	Help:      "Most recently computed aggregate data-freshness confidence.",
})

// ─── Fan-out Metrics ────────────────────────────────────────────────────────

// SubscriberCount tracks the number of currently connected prediction
// subscribers.
var SubscriberCount = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "fanout",
	Name:      "subscriber_count",
	Help:      "Current number of connected prediction subscribers.",
})

// SubscriberDrops tracks subscribers dropped for lagging delivery.
var SubscriberDrops = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "riskcore",
	Subsystem: "fanout",
	Name:      "subscriber_drops_total",
	Help:      "Total subscribers dropped for failing to keep up with delivery.",
})

// BroadcastsSent tracks total prediction broadcasts sent to subscribers.
var BroadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "riskcore",
	Subsystem: "fanout",
	Name:      "broadcasts_total",
	Help:      "Total prediction broadcasts delivered to at least one subscriber.",
})

// ObserveInference records a completed inference's duration and per-domain
// results against the relevant metrics.
func ObserveInference(durationMs float64, resilience int, envProb, healthProb, foodProb float64) {
	InferenceDuration.Observe(durationMs)
	ResilienceScore.Set(float64(resilience))
	DomainProbabilityOfHigh.WithLabelValues("environmental").Set(envProb)
	DomainProbabilityOfHigh.WithLabelValues("health").Set(healthProb)
	DomainProbabilityOfHigh.WithLabelValues("food").Set(foodProb)
}

// ObserveRateGate records the rate gate's admit/reject decision.
func ObserveRateGate(admitted bool) {
	if admitted {
		RateGateAdmitted.Inc()
		return
	}
	RateGateRejected.Inc()
}
