// Package metrics exposes Prometheus collectors for jobs and RPCs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fintrack"

// Registry owns every fintrack collector.
type Registry struct {
	reg *prometheus.Registry

	jobItems    *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	rpcTotal    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
}

// New creates a registry with the process and Go collectors registered.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		jobItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_items_total",
			Help:      "Items processed by batch jobs, by outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of batch job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"job"}),
		rpcTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.jobItems, r.jobDuration, r.rpcTotal, r.rpcDuration,
	)
	return r
}

// JobItems adds n items with the given outcome to job's counter.
func (r *Registry) JobItems(job, outcome string, n int) {
	if n <= 0 {
		return
	}
	r.jobItems.WithLabelValues(job, outcome).Add(float64(n))
}

// JobDuration observes one job run.
func (r *Registry) JobDuration(job string, d time.Duration) {
	r.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Interceptor counts and times every unary RPC.
func (r *Registry) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeUnknown.String()
				var cerr *connect.Error
				if errors.As(err, &cerr) {
					code = cerr.Code().String()
				}
			}
			r.rpcTotal.WithLabelValues(procedure, code).Inc()
			r.rpcDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}
