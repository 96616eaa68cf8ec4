// Package metrics provides Prometheus observability metrics for the
// assignment engine. It includes Critical and Important metrics for
// decision quality and operational visibility.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CRITICAL METRICS - Decision Quality Visibility
// =============================================================================

// DecisionsTotal tracks decisions by outcome (served, hold, invalid).
// A high invalid rate indicates a misbehaving external agent.
var DecisionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "engine",
	Name:      "decisions_total",
	Help:      "Total decision steps by outcome (served, hold, invalid)",
}, []string{"outcome"})

// RewardPerDecision tracks the reward distribution across decisions.
var RewardPerDecision = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "engine",
	Name:      "reward_per_decision",
	Help:      "Reward earned per decision step",
	Buckets:   []float64{-10, -5, 0, 1, 2, 4, 6, 8, 10, 12},
})

// EpisodeRewardTotal tracks the cumulative reward of the latest episode.
var EpisodeRewardTotal = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "engine",
	Name:      "episode_reward_total",
	Help:      "Cumulative reward over the most recent episode",
})

// AppointmentsServed tracks customers served that had an appointment.
var AppointmentsServed = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "engine",
	Name:      "appointments_served_total",
	Help:      "Count of served customers that had an appointment",
})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// CandidatesVisible tracks how many candidates populate the observation.
var CandidatesVisible = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "engine",
	Name:      "candidates_visible",
	Help:      "Number of populated observation slots per decision step",
	Buckets:   []float64{0, 1, 2, 4, 6, 8, 12, 16, 20},
})

// WaitingAtDecision tracks the size of the waiting set at each decision.
var WaitingAtDecision = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "engine",
	Name:      "waiting_at_decision",
	Help:      "Number of waiting customers at each decision step",
	Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
})

// DecisionDurationSeconds tracks time per decision step.
var DecisionDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "engine",
	Name:      "decision_duration_seconds",
	Help:      "Time taken to run one decision step",
	Buckets:   []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01},
})

// EpisodeDurationSeconds tracks wall time per episode run.
var EpisodeDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sim",
	Name:      "episode_duration_seconds",
	Help:      "Wall time taken to run one episode",
	Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
})

// ScenarioCustomers tracks the number of customers per loaded scenario.
var ScenarioCustomers = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sim",
	Name:      "scenario_customers",
	Help:      "Number of customers in a loaded scenario",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetEpisodeGauges resets episode-scoped gauges before a new run.
// Call this at the start of an episode.
func ResetEpisodeGauges() {
	EpisodeRewardTotal.Set(0)
}
