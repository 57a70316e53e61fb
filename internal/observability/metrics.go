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
	// Scanner metrics
	ScanRunsTotal     *prometheus.CounterVec
	ScanDuration      prometheus.Histogram
	PostsScanned      prometheus.Counter
	ScanResults       *prometheus.CounterVec
	ScanRunInProgress prometheus.Gauge

	// Platform metrics
	FetchErrors   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	PostsFetched  *prometheus.CounterVec

	// Launch metrics
	LaunchesTotal      *prometheus.CounterVec
	LaunchStepDuration *prometheus.HistogramVec

	// Solana metrics
	RPCCallLatency      *prometheus.HistogramVec
	ConfirmationLatency prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	RateLimited  *prometheus.CounterVec

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
	WalletBalance      prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "clawnch"
	}

	return &Metrics{
		// Scanner metrics
		ScanRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "runs_total",
			Help:      "Total number of scan runs by status",
		}, []string{"status"}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "run_duration_seconds",
			Help:      "Scan run duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		PostsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "posts_scanned_total",
			Help:      "Total number of posts returned by platform fetches",
		}),
		ScanResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "results_total",
			Help:      "Total number of scan results by platform and status",
		}, []string{"platform", "status"}),
		ScanRunInProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "run_in_progress",
			Help:      "1 while a scan run is executing",
		}),

		// Platform metrics
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "platform",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed platform fetches",
		}, []string{"platform"}),
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "platform",
			Name:      "fetch_duration_seconds",
			Help:      "Platform fetch duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4},
		}, []string{"platform"}),
		PostsFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "platform",
			Name:      "posts_fetched_total",
			Help:      "Total number of posts fetched by platform",
		}, []string{"platform"}),

		// Launch metrics
		LaunchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "launches_total",
			Help:      "Total number of launch attempts by status",
		}, []string{"status"}),
		LaunchStepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "step_duration_seconds",
			Help:      "Launch step duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),

		// Solana metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ConfirmationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to confirmation in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
		RateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}, []string{"route"}),

		// Health metrics
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last completed scan run",
		}),
		WalletBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "wallet_balance_lamports",
			Help:      "Last observed platform wallet balance in lamports",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScanRun records a finished scan run.
func RecordScanRun(status string, durationSeconds float64, postsScanned int) {
	DefaultMetrics.ScanRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
	DefaultMetrics.PostsScanned.Add(float64(postsScanned))
}

// SetScanInProgress flips the in-progress gauge.
func SetScanInProgress(running bool) {
	if running {
		DefaultMetrics.ScanRunInProgress.Set(1)
		return
	}
	DefaultMetrics.ScanRunInProgress.Set(0)
}

// RecordScanResult increments the per-status result counter.
func RecordScanResult(platform, status string) {
	DefaultMetrics.ScanResults.WithLabelValues(platform, status).Inc()
}

// RecordFetch records one platform fetch.
func RecordFetch(platform string, durationSeconds float64, posts int, err error) {
	DefaultMetrics.FetchDuration.WithLabelValues(platform).Observe(durationSeconds)
	if err != nil {
		DefaultMetrics.FetchErrors.WithLabelValues(platform).Inc()
		return
	}
	DefaultMetrics.PostsFetched.WithLabelValues(platform).Add(float64(posts))
}

// RecordLaunch records the outcome of a launch attempt.
func RecordLaunch(status string) {
	DefaultMetrics.LaunchesTotal.WithLabelValues(status).Inc()
}

// RecordLaunchStep records the duration of one launch step.
func RecordLaunchStep(step string, seconds float64) {
	DefaultMetrics.LaunchStepDuration.WithLabelValues(step).Observe(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordConfirmation records submission-to-confirmation latency.
func RecordConfirmation(seconds float64) {
	DefaultMetrics.ConfirmationLatency.Observe(seconds)
}

// RecordHTTPRequest counts an API request.
func RecordHTTPRequest(route, code string) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, code).Inc()
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(route string) {
	DefaultMetrics.RateLimited.WithLabelValues(route).Inc()
}

// UpdateLastScan sets the last successful scan timestamp.
func UpdateLastScan(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulScan.Set(float64(unixSeconds))
}

// UpdateWalletBalance sets the wallet balance gauge.
func UpdateWalletBalance(lamports uint64) {
	DefaultMetrics.WalletBalance.Set(float64(lamports))
}
