// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for the Sprinto API.

A single [Collector] is created at boot and handed to the components that
report on themselves (HTTP chain, live broadcaster, effect runner, mailer).
Each consumer declares the narrow interface it needs, so tests can pass nil
or a stub instead of a real registry.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/sprinto/internal/platform/middleware"
)

const namespace = "sprinto"

// Collector holds every metric the API publishes.
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	liveClients    prometheus.Gauge
	broadcasts     *prometheus.CounterVec
	droppedFrames  prometheus.Counter
	effectFailures *prometheus.CounterVec
	emails         *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	collector := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connections",
			Help:      "WebSocket connections currently registered.",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_broadcasts_total",
			Help:      "Events fanned out to live connections, by event type.",
		}, []string{"type"}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_dropped_frames_total",
			Help:      "Frames dropped because a connection was closed or saturated.",
		}),
		effectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effect_failures_total",
			Help:      "Post-commit effects that returned an error, by effect name.",
		}, []string{"effect"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Transactional emails by template and outcome.",
		}, []string{"template", "outcome"}),
	}

	reg.MustRegister(
		collector.httpRequests,
		collector.httpLatency,
		collector.liveClients,
		collector.broadcasts,
		collector.droppedFrames,
		collector.effectFailures,
		collector.emails,
	)

	return collector
}

// ObserveHTTP records one finished request.
func (collector *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	collector.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	collector.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetLiveConnections sets the live connection gauge.
func (collector *Collector) SetLiveConnections(count int) {
	collector.liveClients.Set(float64(count))
}

// RecordBroadcast records one fan-out of eventType and the frames it dropped.
func (collector *Collector) RecordBroadcast(eventType string, dropped int) {
	collector.broadcasts.WithLabelValues(eventType).Inc()
	if dropped > 0 {
		collector.droppedFrames.Add(float64(dropped))
	}
}

// RecordEffectFailure counts a failed post-commit effect.
func (collector *Collector) RecordEffectFailure(name string) {
	collector.effectFailures.WithLabelValues(name).Inc()
}

// RecordEmail counts a send attempt for template.
func (collector *Collector) RecordEmail(template string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	collector.emails.WithLabelValues(template, outcome).Inc()
}

// # HTTP Surface

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Instrument records request count and latency labelled by the chi route
// pattern, so IDs in the path do not explode label cardinality.
func Instrument(collector *Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()
			recorder := middleware.NewStatusRecorder(writer)

			next.ServeHTTP(recorder, request)

			route := "unmatched"
			if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
				if pattern := routeContext.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			collector.ObserveHTTP(request.Method, route, recorder.Status, time.Since(startTime))
		})
	}
}
