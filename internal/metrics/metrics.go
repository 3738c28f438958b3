// Package metrics provides the centralized Prometheus metrics registry for
// the podium engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RacesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podium_engine",
		Name:      "races_ingested_total",
		Help:      "Total number of races ingested into the rating store",
	})
	RatingUpdateFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podium_engine",
		Name:      "rating_update_failures_total",
		Help:      "Total number of race rating updates that failed",
	})
	OddsSnapshotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podium_engine",
		Name:      "odds_snapshots_total",
		Help:      "Total number of odds snapshots computed",
	})
	BetsPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podium_engine",
		Name:      "bets_placed_total",
		Help:      "Total number of bets placed",
	})
	BetsSettledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podium_engine",
		Name:      "bets_settled_total",
		Help:      "Total number of bets settled",
	})
	PerfectPodiumsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podium_engine",
		Name:      "perfect_podiums_total",
		Help:      "Total number of perfect podium bets settled",
	})
	WeeksFinalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podium_engine",
		Name:      "weeks_finalized_total",
		Help:      "Total number of betting weeks finalized",
	})
	SoftResetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podium_engine",
		Name:      "soft_resets_total",
		Help:      "Total number of monthly soft resets applied",
	})
)

// Gauge metrics
var (
	EligibleCompetitors = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "podium_engine",
		Name:      "eligible_competitors",
		Help:      "Number of competitors currently eligible for betting",
	})
	PendingBets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "podium_engine",
		Name:      "pending_bets",
		Help:      "Number of bets awaiting settlement in the current week",
	})
	FeedSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "podium_engine",
		Name:      "feed_subscribers",
		Help:      "Number of connected websocket feed subscribers",
	})
)

// Histogram metrics
var (
	OddsComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "podium_engine",
		Name:      "odds_compute_duration_seconds",
		Help:      "Duration of Monte Carlo odds computations in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
	SettlementDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "podium_engine",
		Name:      "settlement_duration_seconds",
		Help:      "Duration of weekly settlement runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	BetPlacementLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "podium_engine",
		Name:      "bet_placement_latency_seconds",
		Help:      "Latency of bet placement transactions in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(RacesIngestedTotal)
		registry.MustRegister(RatingUpdateFailuresTotal)
		registry.MustRegister(OddsSnapshotsTotal)
		registry.MustRegister(BetsPlacedTotal)
		registry.MustRegister(BetsSettledTotal)
		registry.MustRegister(PerfectPodiumsTotal)
		registry.MustRegister(WeeksFinalizedTotal)
		registry.MustRegister(SoftResetsTotal)

		// Register gauge metrics
		registry.MustRegister(EligibleCompetitors)
		registry.MustRegister(PendingBets)
		registry.MustRegister(FeedSubscribers)

		// Register histogram metrics
		registry.MustRegister(OddsComputeDuration)
		registry.MustRegister(SettlementDuration)
		registry.MustRegister(BetPlacementLatency)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRaceIngested records a successful race ingestion.
func RecordRaceIngested() {
	RacesIngestedTotal.Inc()
}

// RecordBetPlaced records a bet placement event.
func RecordBetPlaced(latencySeconds float64) {
	BetsPlacedTotal.Inc()
	BetPlacementLatency.Observe(latencySeconds)
}

// RecordSettlement records a weekly settlement run.
func RecordSettlement(betCount int, durationSeconds float64) {
	BetsSettledTotal.Add(float64(betCount))
	WeeksFinalizedTotal.Inc()
	SettlementDuration.Observe(durationSeconds)
}
