package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exposes engine counters and histograms on a
// prometheus registry. The registry is owned by the caller so that it
// can be served or inspected independently of the collector.
type PrometheusCollector struct {
	toolExecutions        *prometheus.CounterVec
	toolDuration          *prometheus.HistogramVec
	capabilityInvocations *prometheus.CounterVec
	capabilityDuration    *prometheus.HistogramVec
	stepsSettled          *prometheus.CounterVec
	gatewayRetries        prometheus.Counter
}

func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		toolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trip_engine",
			Name:      "tool_executions_total",
			Help:      "Number of MCP tool executions by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trip_engine",
			Name:      "tool_execution_duration_seconds",
			Help:      "Duration of MCP tool executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		capabilityInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trip_engine",
			Name:      "capability_invocations_total",
			Help:      "Number of capability gateway invocations by tool, agent and outcome.",
		}, []string{"tool", "agent", "outcome"}),
		capabilityDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trip_engine",
			Name:      "capability_invocation_duration_seconds",
			Help:      "Duration of capability gateway invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		stepsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trip_engine",
			Name:      "steps_settled_total",
			Help:      "Number of itinerary steps settled by type and final status.",
		}, []string{"step_type", "status"}),
		gatewayRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trip_engine",
			Name:      "gateway_retries_total",
			Help:      "Number of retried gateway requests.",
		}),
	}

	collectors := []prometheus.Collector{
		c.toolExecutions,
		c.toolDuration,
		c.capabilityInvocations,
		c.capabilityDuration,
		c.stepsSettled,
		c.gatewayRetries,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (c *PrometheusCollector) RecordToolExecution(ctx context.Context, toolName string, duration time.Duration, success bool) {
	c.toolExecutions.WithLabelValues(toolName, outcome(success)).Inc()
	c.toolDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordCapabilityInvocation(ctx context.Context, tool string, agent string, duration time.Duration, success bool) {
	c.capabilityInvocations.WithLabelValues(tool, agent, outcome(success)).Inc()
	c.capabilityDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordStepSettled(ctx context.Context, stepType string, status string) {
	c.stepsSettled.WithLabelValues(stepType, status).Inc()
}

func (c *PrometheusCollector) RecordGatewayRetry(ctx context.Context) {
	c.gatewayRetries.Inc()
}

func (c *PrometheusCollector) Close() error {
	return nil
}
