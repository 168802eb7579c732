package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climatesphere"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// simulation service.
type Metrics struct {
	SimulationsTotal   *prometheus.CounterVec // labels: target
	SimulationDuration prometheus.Histogram
	SupersededRuns     prometheus.Counter
	RiskSource         *prometheus.CounterVec // labels: source={remote,fallback}
	ActiveSessions     prometheus.Gauge

	// Remote predictor metrics.
	PredictorRequests *prometheus.CounterVec // labels: outcome={success,error,rejected}
	PredictorDuration prometheus.Histogram
	PredictorCache    *prometheus.CounterVec // labels: result={hit,miss}
	MLAvailable       prometheus.Gauge

	SnapshotsPublished *prometheus.CounterVec // labels: outcome={success,error,dropped}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all service metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Completed simulation runs by target variable.",
		}, []string{"target"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Duration of a full adjust-predict-aggregate-project run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		SupersededRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_runs_total",
			Help:      "Session runs discarded because a newer run started.",
		}),
		RiskSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_source_total",
			Help:      "Simulations by base risk source.",
		}, []string{"source"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live simulation sessions.",
		}),
		PredictorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictor_requests_total",
			Help:      "ML API prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predictor_duration_seconds",
			Help:      "ML API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		PredictorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictor_cache_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"}),
		MLAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ml_api_available",
			Help:      "1 when the last ML API call succeeded, 0 otherwise.",
		}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Simulation snapshots written to Kafka by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.SimulationsTotal,
		m.SimulationDuration,
		m.SupersededRuns,
		m.RiskSource,
		m.ActiveSessions,
		m.PredictorRequests,
		m.PredictorDuration,
		m.PredictorCache,
		m.MLAvailable,
		m.SnapshotsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SimulationsTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "simulations_total"}, []string{"target"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "simulation_duration_seconds"}),
		SupersededRuns:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "superseded_runs_total"}),
		RiskSource:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "risk_source_total"}, []string{"source"}),
		ActiveSessions:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "active_sessions"}),
		PredictorRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "predictor_requests_total"}, []string{"outcome"}),
		PredictorDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "predictor_duration_seconds"}),
		PredictorCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "predictor_cache_total"}, []string{"result"}),
		MLAvailable:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "ml_api_available"}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "snapshots_published_total"}, []string{"outcome"}),
	}
}
