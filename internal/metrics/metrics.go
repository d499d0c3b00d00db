// Package metrics exposes Prometheus counters for consultations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/mediz/internal/diagnosis"
)

// Metrics holds the application collectors.
type Metrics struct {
	reg *prometheus.Registry

	TurnsTotal        *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
	StarsTotal        prometheus.Counter
	TerminationsTotal *prometheus.CounterVec
	FallbacksTotal    *prometheus.CounterVec
	RequestCount      *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		TurnsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediz_turns_total",
				Help: "Learner turns handled",
			},
			[]string{"closing"},
		),
		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediz_errors_detected_total",
				Help: "Pedagogical errors detected in learner messages",
			},
			[]string{"category"},
		),
		StarsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "mediz_stars_awarded_total",
				Help: "Stars awarded to learners",
			},
		),
		TerminationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediz_sessions_terminated_total",
				Help: "Terminated sessions by diagnosis outcome",
			},
			[]string{"diagnosis_correct"},
		),
		FallbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediz_llm_fallbacks_total",
				Help: "Generation calls answered with the apology text",
			},
			[]string{"purpose"},
		),
		RequestCount: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediz_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "mediz_http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
			},
			[]string{"method", "endpoint"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) TurnHandled(closing bool) {
	m.TurnsTotal.WithLabelValues(strconv.FormatBool(closing)).Inc()
}

func (m *Metrics) ErrorsDetected(categories []diagnosis.Category) {
	for _, c := range categories {
		m.ErrorsTotal.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) StarsAwarded(n int) {
	m.StarsTotal.Add(float64(n))
}

func (m *Metrics) SessionTerminated(correct bool) {
	m.TerminationsTotal.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// LLMFallback counts one apology served for purpose.
func (m *Metrics) LLMFallback(purpose string) {
	m.FallbacksTotal.WithLabelValues(purpose).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	m.RequestCount.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}
