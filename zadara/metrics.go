package zadara

import "github.com/prometheus/client_golang/prometheus"

var (
	apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zadara_clone_swap",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total Zadara API requests by operation and HTTP status code.",
	}, []string{"operation", "code"})

	apiRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zadara_clone_swap",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Zadara API request duration in seconds.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"operation"})
)

func init() {
	prometheus.MustRegister(apiRequestsTotal, apiRequestDuration)
}
