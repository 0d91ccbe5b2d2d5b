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
	// Scan metrics
	ScanCyclesTotal  *prometheus.CounterVec
	ScanDuration     prometheus.Histogram
	BlocksScanned    prometheus.Counter
	BlockFetchErrors prometheus.Counter
	MintsDetected    prometheus.Counter
	KnownMintsTotal  prometheus.Gauge
	CurrentSlot      prometheus.Gauge
	ObservedSlot     prometheus.Gauge

	// Delivery metrics
	SinkDeliveries *prometheus.CounterVec
	SinkErrors     *prometheus.CounterVec

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_mint_watch"
	}

	return &Metrics{
		ScanCyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "cycles_total",
			Help:      "Total number of scan cycles by status",
		}, []string{"status"}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "cycle_duration_seconds",
			Help:      "Scan cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		BlocksScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "blocks_scanned_total",
			Help:      "Total number of blocks scanned",
		}),
		BlockFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "block_fetch_errors_total",
			Help:      "Total number of block fetches that failed and were skipped",
		}),
		MintsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "mints_detected_total",
			Help:      "Total number of new token mints detected",
		}),
		KnownMintsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "known_mints",
			Help:      "Current size of the known mint registry",
		}),
		CurrentSlot: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "current_slot",
			Help:      "Chain tip slot observed by the most recent scan cycle",
		}),
		ObservedSlot: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "observed_slot",
			Help:      "Latest slot observed on the websocket slot subscription",
		}),
		SinkDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Total number of successful sink deliveries by sink",
		}, []string{"sink"}),
		SinkErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "errors_total",
			Help:      "Total number of failed sink deliveries by sink",
		}, []string{"sink"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScanCycle records a completed scan cycle.
func RecordScanCycle(status string, durationSeconds float64) {
	DefaultMetrics.ScanCyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
}

// RecordBlocksScanned adds to the scanned block counter.
func RecordBlocksScanned(n int) {
	DefaultMetrics.BlocksScanned.Add(float64(n))
}

// RecordBlockFetchError increments the fetch failure counter.
func RecordBlockFetchError() {
	DefaultMetrics.BlockFetchErrors.Inc()
}

// RecordMintDetected increments the detected mint counter.
func RecordMintDetected() {
	DefaultMetrics.MintsDetected.Inc()
}

// UpdateKnownMints updates the registry size gauge.
func UpdateKnownMints(n int) {
	DefaultMetrics.KnownMintsTotal.Set(float64(n))
}

// UpdateCurrentSlot updates the scan tip gauge.
func UpdateCurrentSlot(slot int64) {
	DefaultMetrics.CurrentSlot.Set(float64(slot))
}

// UpdateObservedSlot updates the websocket slot gauge.
func UpdateObservedSlot(slot int64) {
	DefaultMetrics.ObservedSlot.Set(float64(slot))
}

// RecordSinkDelivery records a sink delivery outcome.
func RecordSinkDelivery(sink string, err error) {
	if err != nil {
		DefaultMetrics.SinkErrors.WithLabelValues(sink).Inc()
		return
	}
	DefaultMetrics.SinkDeliveries.WithLabelValues(sink).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordSuccessfulScan marks the time of the last good cycle.
func RecordSuccessfulScan(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulScan.Set(float64(unixSeconds))
}
