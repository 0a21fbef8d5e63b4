package middleware

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics returns a middleware that records in-flight requests, request
// counts by status code and response latency for the named handler.
//
// Collectors go to reg. Registering the same handler name twice reuses the
// collectors already registered, so building several servers in one process
// (tests) does not panic.
func Metrics(reg prometheus.Registerer, name string) func(http.Handler) http.Handler {
	labels := prometheus.Labels{"handler": name}

	inFlight := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "event_logger_requests_in_flight",
		Help:        "Number of requests currently being served by the handler.",
		ConstLabels: labels,
	}))

	counter := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "event_logger_requests_total",
			Help:        "Total number of requests for the handler.",
			ConstLabels: labels,
		},
		[]string{"code", "method"},
	))

	duration := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "event_logger_response_duration_seconds",
			Help:        "A histogram of request latencies.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		},
		[]string{},
	))

	return func(next http.Handler) http.Handler {
		h := promhttp.InstrumentHandlerDuration(duration, next)
		h = promhttp.InstrumentHandlerCounter(counter, h)
		return promhttp.InstrumentHandlerInFlight(inFlight, h)
	}
}

// register adds c to reg, or returns the collector already registered under
// the same descriptor. Any other registration error is a programming mistake.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}
