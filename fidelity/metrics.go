package fidelity

import "github.com/prometheus/client_golang/prometheus"

const namespace = "simengine"

var (
	// turnsTotal counts executed turns by game and status.
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of turns executed",
		},
		[]string{"game", "status"}, // status: success, error
	)

	// fidelityScore is a histogram of per-turn overall fidelity scores.
	fidelityScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fidelity_score",
			Help:      "Histogram of per-turn overall fidelity scores",
			Buckets:   []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
		},
		[]string{"game", "character"},
	)

	// driftFlagsTotal counts turns flagged by the persona-drift check.
	driftFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drift_flags_total",
			Help:      "Total turns flagged as drifted from the bound persona",
		},
		[]string{"game", "character"},
	)

	// providerRetriesTotal counts provider call retry attempts.
	providerRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Total provider call retry attempts",
		},
		[]string{"provider"},
	)

	allMetrics = []prometheus.Collector{
		turnsTotal,
		fidelityScore,
		driftFlagsTotal,
		providerRetriesTotal,
	}
)

// MustRegister registers all engine metrics with the given registry.
func MustRegister(reg *prometheus.Registry) {
	for _, collector := range allMetrics {
		reg.MustRegister(collector)
	}
}

// ObserveTurn records a scored turn for Prometheus exposition.
func ObserveTurn(game, character string, ms MetricSet) {
	turnsTotal.WithLabelValues(game, "success").Inc()
	fidelityScore.WithLabelValues(game, character).Observe(ms.Overall)
}

// ObserveTurnError records a failed turn.
func ObserveTurnError(game string) {
	turnsTotal.WithLabelValues(game, "error").Inc()
}

// ObserveDrift records a persona-drift flag.
func ObserveDrift(game, character string) {
	driftFlagsTotal.WithLabelValues(game, character).Inc()
}

// ObserveRetries records retry attempts beyond the first for a provider call.
func ObserveRetries(provider string, attempts int) {
	if attempts > 1 {
		providerRetriesTotal.WithLabelValues(provider).Add(float64(attempts - 1))
	}
}
