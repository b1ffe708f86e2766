package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "autosales"

func (s *Server) newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	s.eventsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "events_dispatched_total",
		Help:      "Selector events applied, by input source.",
	}, []string{"source"})

	counter := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{Namespace: metricsNamespace, Name: name, Help: help}, f)
	}
	gauge := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: metricsNamespace, Name: name, Help: help}, f)
	}

	reg.MustRegister(
		s.eventsDispatched,
		counter("http_requests_total", "HTTP requests served.", func() float64 {
			return float64(s.tracer.GetMetrics().TotalRequests)
		}),
		counter("http_client_errors_total", "HTTP responses with a 4xx status.", func() float64 {
			return float64(s.tracer.GetMetrics().ClientErrors)
		}),
		counter("http_server_errors_total", "HTTP responses with a 5xx status.", func() float64 {
			return float64(s.tracer.GetMetrics().ServerErrors)
		}),
		gauge("http_average_response_microseconds", "Mean response time since start.", func() float64 {
			return float64(s.tracer.GetMetrics().AverageResponseTime)
		}),
		counter("rate_limited_total", "Requests rejected by the rate limiter.", func() float64 {
			return float64(s.limiter.GetMetrics().Rejected)
		}),
		counter("suspicious_requests_total", "Requests matching scanner patterns.", func() float64 {
			return float64(s.detector.GetMetrics().SuspiciousRequests)
		}),
		gauge("sessions", "Live dashboard sessions.", func() float64 {
			return float64(s.sessions.Cache().Size())
		}),
		gauge("chart_cache_entries", "Memoised chart specifications.", func() float64 {
			return float64(s.view.Cache().Stats().Entries)
		}),
		counter("chart_cache_hits_total", "Chart cache hits.", func() float64 {
			return float64(s.view.Cache().Stats().Hits)
		}),
		counter("chart_cache_misses_total", "Chart cache misses.", func() float64 {
			return float64(s.view.Cache().Stats().Misses)
		}),
	)
	return reg
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{})
}
