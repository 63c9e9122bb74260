package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics of a suite run. Every instance owns its
// registry so runs and tests never collide on registration. All Record methods
// are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	// Core layer metrics
	ActionDuration   *prometheus.HistogramVec
	ActionsSwallowed *prometheus.CounterVec
	WaitTimeouts     *prometheus.CounterVec
	OverlayOutcomes  *prometheus.CounterVec

	// Scenario metrics
	ScenariosTotal   *prometheus.CounterVec
	ScenarioDuration *prometheus.HistogramVec
	ScenarioRetries  *prometheus.CounterVec
	ScenariosActive  prometheus.Gauge
	BreakerOpen      prometheus.Gauge
}

// NewMetrics creates a new metrics instance with all Prometheus metrics registered
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "shopsuite"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		// Core layer metrics
		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of action layer operations including their pre-waits",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
			},
			[]string{"operation", "outcome"},
		),
		ActionsSwallowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "action_errors_swallowed_total",
				Help:      "Failures logged and swallowed under the SwallowAndLog policy",
			},
			[]string{"operation"},
		),
		WaitTimeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wait_timeouts_total",
				Help:      "Waits that failed with a timeout",
			},
			[]string{"condition"},
		),
		OverlayOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overlay_dismissals_total",
				Help:      "Overlay dismissal attempts by terminal state",
			},
			[]string{"state"},
		),

		// Scenario metrics
		ScenariosTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scenarios_total",
				Help:      "Scenarios executed by suite and final status",
			},
			[]string{"suite", "status"},
		),
		ScenarioDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scenario_duration_seconds",
				Help:      "Scenario duration in seconds across all attempts",
				Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"suite"},
		),
		ScenarioRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scenario_retries_total",
				Help:      "Scenario attempts beyond the first",
			},
			[]string{"scenario"},
		),
		ScenariosActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scenarios_active",
				Help:      "Number of scenarios currently running",
			},
		),
		BreakerOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "site_breaker_open",
				Help:      "1 while the site health breaker rejects new scenarios",
			},
		),
	}

	return m
}

// Registry returns the registry holding the suite metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for this instance
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAction records one action layer operation
func (m *Metrics) RecordAction(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ActionDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordSwallowed records a failure absorbed by the SwallowAndLog policy
func (m *Metrics) RecordSwallowed(operation string) {
	if m == nil {
		return
	}
	m.ActionsSwallowed.WithLabelValues(operation).Inc()
}

// RecordWaitTimeout records a failed wait
func (m *Metrics) RecordWaitTimeout(condition string) {
	if m == nil {
		return
	}
	m.WaitTimeouts.WithLabelValues(condition).Inc()
}

// RecordOverlay records the terminal state of a dismissal attempt
func (m *Metrics) RecordOverlay(state string) {
	if m == nil {
		return
	}
	m.OverlayOutcomes.WithLabelValues(state).Inc()
}

// RecordScenario records a finished scenario
func (m *Metrics) RecordScenario(suite, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ScenariosTotal.WithLabelValues(suite, status).Inc()
	m.ScenarioDuration.WithLabelValues(suite).Observe(duration.Seconds())
}

// RecordRetry records a scenario retry
func (m *Metrics) RecordRetry(scenario string) {
	if m == nil {
		return
	}
	m.ScenarioRetries.WithLabelValues(scenario).Inc()
}

// ScenarioStarted tracks a running scenario; call the returned func when done
func (m *Metrics) ScenarioStarted() func() {
	if m == nil {
		return func() {}
	}
	m.ScenariosActive.Inc()
	return m.ScenariosActive.Dec
}

// SetBreakerOpen reflects the site breaker state
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Push sends the current metrics to a Pushgateway
func (m *Metrics) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	pusher := push.New(url, job).Gatherer(m.registry)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
