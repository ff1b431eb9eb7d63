// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	LedgerTransfers     *prometheus.CounterVec
	LedgerRejections    *prometheus.CounterVec
	LedgerApprovals     prometheus.Counter
	LedgerJournalErrors prometheus.Counter
	LedgerTotalSupply   prometheus.Gauge

	// Mint metrics
	MintOutcomes    *prometheus.CounterVec
	MintTransitions *prometheus.CounterVec
	MintDuration    *prometheus.HistogramVec

	// Gateway metrics
	GatewayFetchLatency *prometheus.HistogramVec
	GatewayFetchErrors  *prometheus.CounterVec
	SnapshotsTotal      *prometheus.CounterVec

	// Wallet metrics
	RPCCallLatency   *prometheus.HistogramVec
	WSMessageLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastConfirmedMint prometheus.Gauge
	UptimeSeconds     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer), namespace)
}

func newMetrics(f promauto.Factory, namespace string) *Metrics {
	if namespace == "" {
		namespace = "aurora_assets"
	}

	return &Metrics{
		// Ledger metrics
		LedgerTransfers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transfers_total",
			Help:      "Total number of applied transfers by operation",
		}, []string{"operation"}),
		LedgerRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Total number of rejected ledger operations by reason",
		}, []string{"operation", "reason"}),
		LedgerApprovals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "approvals_total",
			Help:      "Total number of allowance updates",
		}),
		LedgerJournalErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "journal_errors_total",
			Help:      "Total number of failed journal appends",
		}),
		LedgerTotalSupply: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "total_supply",
			Help:      "Total supply of the fungible asset",
		}),

		// Mint metrics
		MintOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "outcomes_total",
			Help:      "Total number of terminal mint outcomes by state and error kind",
		}, []string{"state", "kind"}),
		MintTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "transitions_total",
			Help:      "Total number of mint state machine transitions by target state",
		}, []string{"state"}),
		MintDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "duration_seconds",
			Help:      "Mint request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"state"}),

		// Gateway metrics
		GatewayFetchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "fetch_latency_seconds",
			Help:      "Collection fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		GatewayFetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed collection fetches by kind",
		}, []string{"kind"}),
		SnapshotsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "snapshots_total",
			Help:      "Total number of assembled snapshots by completeness",
		}, []string{"complete"}),

		// Wallet metrics
		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "rpc_call_latency_seconds",
			Help:      "Wallet RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WSMessageLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastConfirmedMint: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_confirmed_mint_timestamp",
			Help:      "Unix timestamp of last confirmed mint",
		}),
		UptimeSeconds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordLedgerTransfer increments the applied transfers counter.
func RecordLedgerTransfer(operation string) {
	DefaultMetrics.LedgerTransfers.WithLabelValues(operation).Inc()
}

// RecordLedgerRejection records a rejected ledger operation.
func RecordLedgerRejection(operation, reason string) {
	DefaultMetrics.LedgerRejections.WithLabelValues(operation, reason).Inc()
}

// RecordLedgerApproval increments the approvals counter.
func RecordLedgerApproval() {
	DefaultMetrics.LedgerApprovals.Inc()
}

// RecordJournalError increments the journal append failure counter.
func RecordJournalError() {
	DefaultMetrics.LedgerJournalErrors.Inc()
}

// UpdateTotalSupply sets the total supply gauge.
func UpdateTotalSupply(supply uint64) {
	DefaultMetrics.LedgerTotalSupply.Set(float64(supply))
}

// RecordMintTransition records a mint state machine transition.
func RecordMintTransition(state string) {
	DefaultMetrics.MintTransitions.WithLabelValues(state).Inc()
}

// RecordMintOutcome records a terminal mint outcome. kind is empty on success.
func RecordMintOutcome(state, kind string, durationSeconds float64) {
	DefaultMetrics.MintOutcomes.WithLabelValues(state, kind).Inc()
	DefaultMetrics.MintDuration.WithLabelValues(state).Observe(durationSeconds)
}

// RecordMintConfirmed updates the last confirmed mint gauge.
func RecordMintConfirmed(unixSeconds int64) {
	DefaultMetrics.LastConfirmedMint.Set(float64(unixSeconds))
}

// RecordGatewayFetch records a collection fetch.
func RecordGatewayFetch(kind string, seconds float64, err error) {
	DefaultMetrics.GatewayFetchLatency.WithLabelValues(kind).Observe(seconds)
	if err != nil {
		DefaultMetrics.GatewayFetchErrors.WithLabelValues(kind).Inc()
	}
}

// RecordSnapshot records an assembled snapshot.
func RecordSnapshot(complete bool) {
	label := "false"
	if complete {
		label = "true"
	}
	DefaultMetrics.SnapshotsTotal.WithLabelValues(label).Inc()
}

// RecordRPCLatency records wallet RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordWSMessage records WebSocket message processing latency.
func RecordWSMessage(seconds float64) {
	DefaultMetrics.WSMessageLatency.Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
