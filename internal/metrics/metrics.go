// Package metrics provides counters, Prometheus collectors, and HTTP
// handlers for exporting notifyd runtime metrics.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Internal state (source of truth for the JSON snapshot)
var (
	dispatches     int64
	channelSent    int64
	channelSkipped int64
	channelFailed  int64
	remindersFired int64
	scanErrors     int64
	hubSessions    int64
	hubPublished   int64
	hubDropped     int64
	lastScan       int64
)

// Prometheus collectors
var (
	promDispatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifyd_dispatches_total",
			Help: "Total notification intents dispatched",
		},
	)
	promChannelOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifyd_channel_outcomes_total",
			Help: "Per-channel delivery outcomes",
		},
		[]string{"channel", "status"},
	)
	promRemindersFired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifyd_reminders_fired_total",
			Help: "Total reminder windows fired",
		},
	)
	promScanErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifyd_scan_errors_total",
			Help: "Total scheduler enumeration errors",
		},
	)
	promHubSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifyd_hub_sessions",
			Help: "Currently connected hub sessions",
		},
	)
	promHubPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifyd_hub_published_total",
			Help: "Total frames published to hub topics",
		},
	)
	promHubDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifyd_hub_dropped_total",
			Help: "Total frames dropped for slow subscribers",
		},
	)
	promDispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notifyd_dispatch_duration_seconds",
			Help:    "Duration of full intent dispatches across all channels",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
	promLastScan = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifyd_last_scan_timestamp_seconds",
			Help: "Unix timestamp of the last reminder scan",
		},
	)
)

func init() {
	prometheus.MustRegister(
		promDispatches,
		promChannelOutcomes,
		promRemindersFired,
		promScanErrors,
		promHubSessions,
		promHubPublished,
		promHubDropped,
		promDispatchDuration,
		promLastScan,
	)
}

// IncDispatch increments the count of dispatched intents.
func IncDispatch() {
	atomic.AddInt64(&dispatches, 1)
	promDispatches.Inc()
}

// IncChannelSent records a provider-accepted delivery for a channel.
func IncChannelSent(channel string) {
	atomic.AddInt64(&channelSent, 1)
	promChannelOutcomes.WithLabelValues(channel, "sent").Inc()
}

// IncChannelSkipped records a channel skipped for a missing address or an
// unconfigured sender.
func IncChannelSkipped(channel string) {
	atomic.AddInt64(&channelSkipped, 1)
	promChannelOutcomes.WithLabelValues(channel, "skipped").Inc()
}

// IncChannelFailed records a provider error for a channel.
func IncChannelFailed(channel string) {
	atomic.AddInt64(&channelFailed, 1)
	promChannelOutcomes.WithLabelValues(channel, "failed").Inc()
}

// IncReminderFired increments the count of fired reminder windows.
func IncReminderFired() {
	atomic.AddInt64(&remindersFired, 1)
	promRemindersFired.Inc()
}

// IncScanError increments the count of scheduler enumeration errors.
func IncScanError() {
	atomic.AddInt64(&scanErrors, 1)
	promScanErrors.Inc()
}

// SessionConnected adjusts the connected-session gauge upward.
func SessionConnected() {
	atomic.AddInt64(&hubSessions, 1)
	promHubSessions.Inc()
}

// SessionDisconnected adjusts the connected-session gauge downward.
func SessionDisconnected() {
	atomic.AddInt64(&hubSessions, -1)
	promHubSessions.Dec()
}

// IncHubPublished increments the count of published hub frames.
func IncHubPublished() {
	atomic.AddInt64(&hubPublished, 1)
	promHubPublished.Inc()
}

// IncHubDropped increments the count of frames dropped for slow subscribers.
func IncHubDropped() {
	atomic.AddInt64(&hubDropped, 1)
	promHubDropped.Inc()
}

// ObserveDispatchDuration records the duration (in seconds) of one dispatch.
func ObserveDispatchDuration(seconds float64) {
	promDispatchDuration.Observe(seconds)
}

// SetLastScan stores the provided time as the last scan timestamp.
func SetLastScan(t time.Time) {
	atomic.StoreInt64(&lastScan, t.Unix())
	promLastScan.Set(float64(t.Unix()))
}

// StatsSnapshot is a snapshot of metrics for JSON encoding.
type StatsSnapshot struct {
	Dispatches     int64  `json:"dispatches"`
	ChannelSent    int64  `json:"channel_sent"`
	ChannelSkipped int64  `json:"channel_skipped"`
	ChannelFailed  int64  `json:"channel_failed"`
	RemindersFired int64  `json:"reminders_fired"`
	ScanErrors     int64  `json:"scan_errors"`
	HubSessions    int64  `json:"hub_sessions"`
	HubPublished   int64  `json:"hub_published"`
	HubDropped     int64  `json:"hub_dropped"`
	LastScan       int64  `json:"last_scan_timestamp"`
	LastScanHuman  string `json:"last_scan_human"`
}

// GetSnapshot returns the current values of all internal counters.
func GetSnapshot() StatsSnapshot {
	ts := atomic.LoadInt64(&lastScan)
	return StatsSnapshot{
		Dispatches:     atomic.LoadInt64(&dispatches),
		ChannelSent:    atomic.LoadInt64(&channelSent),
		ChannelSkipped: atomic.LoadInt64(&channelSkipped),
		ChannelFailed:  atomic.LoadInt64(&channelFailed),
		RemindersFired: atomic.LoadInt64(&remindersFired),
		ScanErrors:     atomic.LoadInt64(&scanErrors),
		HubSessions:    atomic.LoadInt64(&hubSessions),
		HubPublished:   atomic.LoadInt64(&hubPublished),
		HubDropped:     atomic.LoadInt64(&hubDropped),
		LastScan:       ts,
		LastScanHuman:  time.Unix(ts, 0).Format(time.RFC3339),
	}
}

// PromHandler returns an HTTP handler that exposes Prometheus metrics.
func PromHandler() http.Handler { return promhttp.Handler() }

// JSONHandler returns an HTTP handler that serves the current metrics as a
// JSON-encoded StatsSnapshot.
func JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetSnapshot())
	})
}
