package workflow

import "github.com/prometheus/client_golang/prometheus"

var (
	stepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zadara_clone_swap",
		Subsystem: "workflow",
		Name:      "step_duration_seconds",
		Help:      "Workflow step duration in seconds, operator input included.",
		Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 300},
	}, []string{"step"})

	stepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zadara_clone_swap",
		Subsystem: "workflow",
		Name:      "steps_total",
		Help:      "Total workflow steps by result.",
	}, []string{"step", "result"})
)

func init() {
	prometheus.MustRegister(stepDuration, stepsTotal)
}

// WriteMetrics dumps the default registry to path in text format, for the
// node_exporter textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
