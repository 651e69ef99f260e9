package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/blockdoc/internal/pipeline"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	commands     *prometheus.CounterVec
	sessions     prometheus.Gauge
	jobs         *prometheus.CounterVec
	generation   prometheus.Histogram
	httpRequests *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blockdoc_commands_total",
			Help: "Editor commands executed, by command and outcome code.",
		}, []string{"command", "outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blockdoc_sessions",
			Help: "Live editor sessions.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blockdoc_generation_jobs_total",
			Help: "Finished generation jobs by final status.",
		}, []string{"status"}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blockdoc_generation_duration_seconds",
			Help:    "Time from queueing a generation job to its final status.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blockdoc_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.reg.MustRegister(m.commands, m.sessions, m.jobs, m.generation, m.httpRequests,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// SetSessions is the session store's change hook.
func (m *Metrics) SetSessions(n int) { m.sessions.Set(float64(n)) }

// ObserveJob is the orchestrator's observer.
func (m *Metrics) ObserveJob(snap pipeline.JobSnapshot, elapsed time.Duration) {
	m.jobs.WithLabelValues(string(snap.Status)).Inc()
	if snap.Status == pipeline.StatusApplied {
		m.generation.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeCommand(name, outcome string) {
	m.commands.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) observeRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
