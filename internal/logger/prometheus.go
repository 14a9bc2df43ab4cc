package logger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	counter     *prometheus.CounterVec
	counterOnce sync.Once
)

// PrometheusHook counts log statements per level.
type PrometheusHook struct{}

func (h PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel {
		counter.WithLabelValues(level.String()).Inc()
	}
}

// NewPrometheusHook registers log_statements_total on first use. The service
// label is fixed by the first caller.
func NewPrometheusHook(serviceName string) PrometheusHook {
	counterOnce.Do(func() {
		counter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "log_statements_total",
				Help:        "Number of log statements, differentiated by log level.",
				ConstLabels: prometheus.Labels{"service": serviceName},
			},
			[]string{"level"},
		)
	})
	return PrometheusHook{}
}
