// Package metrics bundles the Prometheus collectors for RPC and tool calls.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HendryAvila/eva-mcp/internal/rpc"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry     *prometheus.Registry
	RPCCalls     *prometheus.CounterVec
	RPCDuration  *prometheus.HistogramVec
	ToolCalls    *prometheus.CounterVec
	PolicyBlocks *prometheus.CounterVec
}

// New constructs the collectors and registers them.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eva_rpc_calls_total",
		Help: "JSON-RPC calls by method and outcome",
	}, []string{"method", "outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eva_rpc_call_duration_seconds",
		Help:    "JSON-RPC call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	tools := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eva_tool_calls_total",
		Help: "MCP tool invocations by tool and success",
	}, []string{"tool", "success"})

	blocks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eva_policy_blocks_total",
		Help: "Calls refused by the read-only guard",
	}, []string{"method"})

	reg.MustRegister(calls, durs, tools, blocks)

	return &Metrics{
		registry:     reg,
		RPCCalls:     calls,
		RPCDuration:  durs,
		ToolCalls:    tools,
		PolicyBlocks: blocks,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCall implements rpc.Observer. Guard rejections never reached the
// network, so they are not timed.
func (m *Metrics) ObserveCall(rec rpc.CallRecord) {
	if m == nil {
		return
	}
	m.RPCCalls.WithLabelValues(rec.Method, string(rec.Outcome)).Inc()
	if rec.Outcome == rpc.OutcomePolicyViolation {
		m.PolicyBlocks.WithLabelValues(rec.Method).Inc()
		return
	}
	m.RPCDuration.WithLabelValues(rec.Method).Observe(rec.Duration.Seconds())
}

// RecordTool counts one tool invocation.
func (m *Metrics) RecordTool(tool string, success bool) {
	if m == nil {
		return
	}
	label := "false"
	if success {
		label = "true"
	}
	m.ToolCalls.WithLabelValues(tool, label).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
