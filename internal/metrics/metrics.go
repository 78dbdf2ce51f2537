// Package metrics exposes evaluation counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"siapcheck/internal/batch"
	"siapcheck/internal/engine"
	"siapcheck/internal/verdict"
)

const namespace = "siapcheck"

// Metrics owns a private registry so several instances can coexist in
// tests. It implements engine.Observer.
type Metrics struct {
	reg *prometheus.Registry

	questions  *prometheus.CounterVec
	resolver   *prometheus.HistogramVec
	earlyStops *prometheus.CounterVec
	errors     *prometheus.CounterVec
	verdicts   *prometheus.CounterVec
	risk       *prometheus.HistogramVec
	documents  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		questions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions answered, by scenario and confidence tier.",
		}, []string{"scenario", "tier"}),
		resolver: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolver_duration_seconds",
			Help:      "Resolver latency per question.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4m
		}, []string{"tier"}),
		earlyStops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "early_terminations_total",
			Help:      "Traversals stopped by an unanswerable question.",
		}, []string{"scenario"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traversal_errors_total",
			Help:      "Traversals aborted by a graph error or cancellation.",
		}, []string{"scenario"}),
		verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Results by scenario and verdict.",
		}, []string{"scenario", "verdict"}),
		risk: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Risk score of HIT results.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"scenario"}),
		documents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_documents_total",
			Help:      "Batch documents by outcome.",
		}, []string{"outcome"}),
	}
}

// OnEvent records traversal events.
func (m *Metrics) OnEvent(e engine.Event) {
	switch e.Type {
	case engine.EventAnswer:
		m.questions.WithLabelValues(e.ScenarioID, string(e.Tier)).Inc()
		m.resolver.WithLabelValues(string(e.Tier)).Observe(e.Elapsed.Seconds())
	case engine.EventEarlyStop:
		m.earlyStops.WithLabelValues(e.ScenarioID).Inc()
	case engine.EventError:
		m.errors.WithLabelValues(e.ScenarioID).Inc()
	}
}

// ObserveResult records a finished result.
func (m *Metrics) ObserveResult(r verdict.Result) {
	scenario := r.ScenarioID
	if r.Unrouted {
		scenario = "unrouted"
	}
	m.verdicts.WithLabelValues(scenario, string(r.Verdict)).Inc()
	if r.Verdict == verdict.Hit {
		m.risk.WithLabelValues(scenario).Observe(r.RiskScore)
	}
}

// ObserveEntry records one batch entry.
func (m *Metrics) ObserveEntry(e batch.Entry) {
	if e.Failed() {
		m.documents.WithLabelValues("failed").Inc()
		return
	}
	m.documents.WithLabelValues("ok").Inc()
	m.ObserveResult(*e.Result)
}

// ObserveAbandoned records documents dropped by cancellation.
func (m *Metrics) ObserveAbandoned(n int) {
	m.documents.WithLabelValues("abandoned").Add(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
