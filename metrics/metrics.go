// Package metrics exposes the Prometheus collectors for canvas activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cashboard"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	CanvasSaves    prometheus.Counter
	SaveFailures   prometheus.Counter
	LoadFallbacks  *prometheus.CounterVec
	NodesAdded     *prometheus.CounterVec
	NodesDeleted   prometheus.Counter
	Imports        *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	Events         *prometheus.CounterVec
}

// New registers a fresh set of collectors on their own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		CanvasSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "canvas_saves_total",
			Help: "Canvas envelopes written to the store.",
		}),
		SaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "canvas_save_failures_total",
			Help: "Canvas saves that returned an error.",
		}),
		LoadFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "canvas_load_fallbacks_total",
			Help: "Loads that fell back to the seed canvas.",
		}, []string{"reason"}),
		NodesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "nodes_added_total",
			Help: "Nodes inserted, by kind.",
		}, []string{"kind"}),
		NodesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "nodes_deleted_total",
			Help: "Nodes removed from canvases.",
		}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "imports_total",
			Help: "Workflow imports, by format and outcome.",
		}, []string{"format", "outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "active_sessions",
			Help: "Open workspace sessions.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_total",
			Help: "Canvas events emitted on the bus.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		m.CanvasSaves, m.SaveFailures, m.LoadFallbacks, m.NodesAdded,
		m.NodesDeleted, m.Imports, m.ActiveSessions, m.Events,
	)
	return m
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) SaveOK() {
	if m != nil {
		m.CanvasSaves.Inc()
	}
}

func (m *Metrics) SaveFailed() {
	if m != nil {
		m.SaveFailures.Inc()
	}
}

func (m *Metrics) LoadFellBack(reason string) {
	if m != nil {
		m.LoadFallbacks.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) NodeAdded(kind string) {
	if m != nil {
		m.NodesAdded.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) NodeDeleted() {
	if m != nil {
		m.NodesDeleted.Inc()
	}
}

func (m *Metrics) Imported(format string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Imports.WithLabelValues(format, outcome).Inc()
}

func (m *Metrics) SessionsDelta(d int) {
	if m != nil {
		m.ActiveSessions.Add(float64(d))
	}
}

func (m *Metrics) Event(name string) {
	if m != nil {
		m.Events.WithLabelValues(name).Inc()
	}
}
