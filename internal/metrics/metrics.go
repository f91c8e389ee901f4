// Package metrics provides Prometheus metrics for the prop feed and parlay builder.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects feed and builder metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	FeedFetches      *prometheus.CounterVec
	FeedLatency      *prometheus.HistogramVec
	SnapshotProps    *prometheus.GaugeVec
	SnapshotAge      *prometheus.GaugeVec
	ParlaysGenerated *prometheus.CounterVec
	BuildsTruncated  *prometheus.CounterVec
	BuildLatency     *prometheus.HistogramVec
	AlertsSent       *prometheus.CounterVec
	SlipsSaved       prometheus.Counter
	StreamClients    prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		FeedFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propparlay_feed_fetches_total",
				Help: "Prop feed fetches by sport and outcome",
			},
			[]string{"sport", "status"},
		),
		FeedLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "propparlay_feed_fetch_seconds",
				Help:    "Prop feed fetch latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sport"},
		),
		SnapshotProps: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "propparlay_snapshot_props",
				Help: "Props in the latest snapshot",
			},
			[]string{"sport"},
		),
		SnapshotAge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "propparlay_snapshot_timestamp_seconds",
				Help: "Unix time of the latest successful snapshot",
			},
			[]string{"sport"},
		),
		ParlaysGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propparlay_parlays_generated_total",
				Help: "Priced parlay combinations by sport and leg count",
			},
			[]string{"sport", "legs"},
		),
		BuildsTruncated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propparlay_builds_truncated_total",
				Help: "Parlay builds cut short by a combination or display cap",
			},
			[]string{"sport", "cap_mode"},
		),
		BuildLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "propparlay_build_seconds",
				Help:    "Parlay build latency",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"sport"},
		),
		AlertsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propparlay_alerts_total",
				Help: "Parlay alerts emitted",
			},
			[]string{"sport"},
		),
		SlipsSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "propparlay_slips_saved_total",
				Help: "Parlay slips saved",
			},
		),
		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "propparlay_stream_clients",
				Help: "Connected websocket clients",
			},
		),
	}

	registry.MustRegister(
		m.FeedFetches,
		m.FeedLatency,
		m.SnapshotProps,
		m.SnapshotAge,
		m.ParlaysGenerated,
		m.BuildsTruncated,
		m.BuildLatency,
		m.AlertsSent,
		m.SlipsSaved,
		m.StreamClients,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFetch records one feed fetch.
func (m *Metrics) RecordFetch(sport string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FeedFetches.WithLabelValues(sport, status).Inc()
	m.FeedLatency.WithLabelValues(sport).Observe(d.Seconds())
}

// RecordSnapshot records the size and time of a stored snapshot.
func (m *Metrics) RecordSnapshot(sport string, props int, at time.Time) {
	m.SnapshotProps.WithLabelValues(sport).Set(float64(props))
	m.SnapshotAge.WithLabelValues(sport).Set(float64(at.Unix()))
}

// RecordBuild records one parlay build.
func (m *Metrics) RecordBuild(sport, legs, capMode string, generated int, truncated bool, d time.Duration) {
	m.ParlaysGenerated.WithLabelValues(sport, legs).Add(float64(generated))
	if truncated {
		m.BuildsTruncated.WithLabelValues(sport, capMode).Inc()
	}
	m.BuildLatency.WithLabelValues(sport).Observe(d.Seconds())
}
