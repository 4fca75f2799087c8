// Package metrics собирает Prometheus метрики сервера.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace is the prefix of every exported metric
const Namespace = "gamelib"

// Исходы попыток аутентификации
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeConflict           = "conflict"
	OutcomeUnauthorized       = "unauthorized"
	OutcomeError              = "error"
)

// Metrics holds the server collectors
type Metrics struct {
	gatherer        prometheus.Gatherer
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authAttempts    *prometheus.CounterVec
	hashDuration    *prometheus.HistogramVec
	hashQueue       prometheus.Gauge
}

// New регистрирует коллекторы в собственном реестре.
// Каждый вызов создает независимый реестр, поэтому тесты не конфликтуют.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		gatherer: registry,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Authentication attempts by operation and outcome",
		}, []string{"operation", "outcome"}),

		hashDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "hash_duration_seconds",
			Help:      "Time spent hashing or comparing secrets",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		hashQueue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "hash_waiting",
			Help:      "Requests waiting for a hashing slot",
		}),
	}
}

// Handler returns the /metrics exposition handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// AuthAttempt records the outcome of login, register or session resolution
func (m *Metrics) AuthAttempt(operation, outcome string) {
	m.authAttempts.WithLabelValues(operation, outcome).Inc()
}

// ObserveHash records the duration of one hash or compare call
func (m *Metrics) ObserveHash(operation string, duration time.Duration) {
	m.hashDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// HashWaiting adjusts the number of requests queued for a hashing slot
func (m *Metrics) HashWaiting(delta int) {
	m.hashQueue.Add(float64(delta))
}
