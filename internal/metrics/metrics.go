// Package metrics defines the Prometheus instruments shared by all meters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "precipmeter"

// Metrics holds the counters and gauges of the ingestion and reporting
// paths. All vectors are labelled by station.
type Metrics struct {
	TelegramsReceived *prometheus.CounterVec
	TelegramsRejected *prometheus.CounterVec // labels: station, reason={malformed,short}
	FieldErrors       *prometheus.CounterVec // labels: station, field
	EpisodesClosed    *prometheus.CounterVec
	Corrections       *prometheus.CounterVec // labels: station, rule
	PersistenceErrors *prometheus.CounterVec
	ClassifyFaults    *prometheus.CounterVec
	Reconnects        *prometheus.CounterVec
	ReportsWritten    *prometheus.CounterVec // labels: station, engine

	WindowEpisodes *prometheus.GaugeVec
	Connected      *prometheus.GaugeVec
	PresentWW      *prometheus.GaugeVec
	SensorState    *prometheus.GaugeVec
}

func newMetrics() *Metrics {
	return &Metrics{
		TelegramsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegrams_received_total",
			Help:      "Telegrams read from the sensor.",
		}, []string{"station"}),
		TelegramsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegrams_rejected_total",
			Help:      "Telegrams dropped as malformed or short.",
		}, []string{"station", "reason"}),
		FieldErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_errors_total",
			Help:      "Telegram fields that failed to convert.",
		}, []string{"station", "field"}),
		EpisodesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_closed_total",
			Help:      "Weather episodes written to the episode store.",
		}, []string{"station"}),
		Corrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrections_total",
			Help:      "Rewrites of the episode window by filter rule.",
		}, []string{"station", "rule"}),
		PersistenceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_errors_total",
			Help:      "Failed episode store operations.",
		}, []string{"station"}),
		ClassifyFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_faults_total",
			Help:      "Classifications that failed and fell back to the raw codes.",
		}, []string{"station"}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Transport connections torn down after an error or stale data.",
		}, []string{"station"}),
		ReportsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_written_total",
			Help:      "Report records handed to storage engines.",
		}, []string{"station", "engine"}),
		WindowEpisodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_episodes",
			Help:      "Episodes currently held in the one hour window.",
		}, []string{"station"}),
		Connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the transport to the sensor is open.",
		}, []string{"station"}),
		PresentWW: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "present_weather_ww",
			Help:      "Reported present weather code ww, -1 when unknown.",
		}, []string{"station"}),
		SensorState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_state",
			Help:      "Status reported in the sensor's last telegram, 0 when it is fine.",
		}, []string{"station"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TelegramsReceived,
		m.TelegramsRejected,
		m.FieldErrors,
		m.EpisodesClosed,
		m.Corrections,
		m.PersistenceErrors,
		m.ClassifyFaults,
		m.Reconnects,
		m.ReportsWritten,
		m.WindowEpisodes,
		m.Connected,
		m.PresentWW,
		m.SensorState,
	}
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere,
// so tests can create as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
