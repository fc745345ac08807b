package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HandlerMetrics struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	gatherer        prometheus.Gatherer
}

type ServiceMetrics struct {
	MethodCount    *prometheus.CounterVec
	MethodDuration *prometheus.HistogramVec
}

type RepositoryMetrics struct {
	QueryCount    *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	CacheResults  *prometheus.CounterVec
}

// Registry bundles a registerer with the gatherer that exposes it, so tests
// can use a private prometheus.NewRegistry() instead of the default one.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

func NewHandlerMetrics(reg Registry) *HandlerMetrics {
	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_requests_total",
			Help: "Total number of HTTP requests handled by the handler layer.",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "handler_request_duration_seconds",
			Help:    "Histogram of response latency for handler in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	reg.MustRegister(requestCount, requestDuration)

	return &HandlerMetrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		gatherer:        reg,
	}
}

func NewServiceMetrics(reg prometheus.Registerer) *ServiceMetrics {
	methodCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_methods_total",
			Help: "Total number of service methods executed.",
		},
		[]string{"method", "status"},
	)

	methodDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "service_method_duration_seconds",
			Help:    "Histogram of service method execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	reg.MustRegister(methodCount, methodDuration)

	return &ServiceMetrics{
		MethodCount:    methodCount,
		MethodDuration: methodDuration,
	}
}

func NewRepositoryMetrics(reg prometheus.Registerer) *RepositoryMetrics {
	queryCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_queries_total",
			Help: "Total number of database queries executed.",
		},
		[]string{"query", "status"},
	)

	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_query_duration_seconds",
			Help:    "Histogram of database query execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query", "status"},
	)

	cacheResults := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_cache_lookups_total",
			Help: "Advertisement cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)

	reg.MustRegister(queryCount, queryDuration, cacheResults)

	return &RepositoryMetrics{
		QueryCount:    queryCount,
		QueryDuration: queryDuration,
		CacheResults:  cacheResults,
	}
}

func (hm *HandlerMetrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(hm.gatherer, promhttp.HandlerOpts{})
}
