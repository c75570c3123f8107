package collect

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	cycles        prometheus.Counter
	stepFailures  *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "moto_exporter",
			Subsystem: "collect",
			Name:      "cycles_total",
			Help:      "Number of collection cycles started.",
		}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moto_exporter",
			Subsystem: "collect",
			Name:      "step_failures_total",
			Help:      "Number of failed collection steps.",
		}, []string{"step"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "moto_exporter",
			Subsystem: "collect",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of collection cycles.",
		}),
	}
	registry.MustRegister(m.cycles, m.stepFailures, m.cycleDuration)
	return m
}

func (m *Metrics) observe(report Report) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	for _, step := range report.Failed() {
		m.stepFailures.WithLabelValues(string(step.Step)).Inc()
	}
	m.cycleDuration.Observe(report.Finished.Sub(report.Started).Seconds())
}
