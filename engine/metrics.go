package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics instruments the engine.
type Metrics struct {
	runLatency    prometheus.Histogram
	activeRuns    prometheus.Gauge
	runsTotal     prometheus.Counter
	settledRuns   prometheus.Counter
	settledVolume prometheus.Counter
	errors        *prometheus.CounterVec
	successRate   prometheus.Gauge
}

// MetricsSnapshot is a point-in-time readback of the counters.
type MetricsSnapshot struct {
	RunsTotal     float64
	SettledRuns   float64
	SettledVolume float64
	SuccessRate   float64
}

func newMetrics() *Metrics {
	return &Metrics{
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chainswap_run_latency_seconds",
			Help:    "Latency of chain executions",
			Buckets: prometheus.DefBuckets,
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chainswap_active_runs",
			Help: "Number of currently executing runs",
		}),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainswap_runs_total",
			Help: "Total number of accepted runs",
		}),
		settledRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainswap_settled_runs_total",
			Help: "Number of runs that cleared the profit threshold",
		}),
		settledVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainswap_settled_volume",
			Help: "Total final output volume of settled runs",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chainswap_errors_total",
			Help: "Number of run failures by error type",
		}, []string{"error_type"}),
		successRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chainswap_success_rate",
			Help: "Settled runs over accepted runs",
		}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.runLatency, m.activeRuns, m.runsTotal,
		m.settledRuns, m.settledVolume, m.errors, m.successRate,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) updateSuccessRate() {
	total := counterValue(m.runsTotal)
	if total > 0 {
		m.successRate.Set(counterValue(m.settledRuns) / total)
	}
}

// Snapshot reads the counters back through the collector interface.
func (m *Metrics) Snapshot() MetricsSnapshot {
	total := counterValue(m.runsTotal)
	settled := counterValue(m.settledRuns)
	snap := MetricsSnapshot{
		RunsTotal:     total,
		SettledRuns:   settled,
		SettledVolume: counterValue(m.settledVolume),
	}
	if total > 0 {
		snap.SuccessRate = settled / total
	}
	return snap
}

func counterValue(c prometheus.Counter) float64 {
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	metric := <-ch
	if metric == nil {
		return 0
	}
	out := &dto.Metric{}
	if err := metric.Write(out); err != nil || out.Counter == nil {
		return 0
	}
	return out.Counter.GetValue()
}
