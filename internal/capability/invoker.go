package capability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/travel-butler/trip-engine/internal/gateway"
	"github.com/travel-butler/trip-engine/internal/shared/metrics"
	"github.com/travel-butler/trip-engine/internal/trace"
)

// Result is the outcome of one tool invocation. Status mirrors the
// gateway envelope: "ok" for a completed call, "awaiting_approval"
// when the provider requires an explicit user approval before booking.
type Result struct {
	Status    string                 `json:"status"`
	Data      map[string]interface{} `json:"data"`
	LatencyMS int64                  `json:"latency_ms"`
	TraceID   string                 `json:"trace_id"`
	Duplicate bool                   `json:"duplicate,omitempty"`
}

const (
	ResultStatusOK               = "ok"
	ResultStatusAwaitingApproval = "awaiting_approval"
)

// Invoker executes capability tool calls.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// GatewayInvoker sends tool calls to the capability gateway and traces
// every invocation, flagging duplicate payloads within the dedupe window.
type GatewayInvoker struct {
	client    *gateway.Client
	tracer    *trace.Tracer
	deduper   *trace.Deduper
	logger    *slog.Logger
	collector metrics.Collector
}

func NewGatewayInvoker(
	client *gateway.Client,
	tracer *trace.Tracer,
	deduper *trace.Deduper,
	logger *slog.Logger,
	collector metrics.Collector,
) *GatewayInvoker {
	return &GatewayInvoker{
		client:    client,
		tracer:    tracer,
		deduper:   deduper,
		logger:    logger,
		collector: collector,
	}
}

func (i *GatewayInvoker) Invoke(ctx context.Context, req Request) (*Result, error) {
	payloadHash, err := trace.HashPayload(req.Payload)
	if err != nil {
		return nil, err
	}

	duplicate := i.deduper.Seen(req.Tool, payloadHash)
	if duplicate {
		i.logger.Warn("Duplicate tool payload within dedupe window",
			"tool", req.Tool,
			"payload_hash", payloadHash)
	}

	traceID := i.tracer.Begin(req.Tool, string(req.Agent), payloadHash)
	start := time.Now()

	var envelope struct {
		Status string                 `json:"status"`
		Result map[string]interface{} `json:"result"`
		Detail string                 `json:"detail"`
	}
	err = i.client.Post(ctx, "/tools/"+req.Tool, req.Payload, &envelope)
	elapsed := time.Since(start)
	i.collector.RecordCapabilityInvocation(ctx, req.Tool, string(req.Agent), elapsed, err == nil)

	if err != nil {
		if finishErr := i.tracer.Finish(traceID, trace.InvocationStatusError, err.Error()); finishErr != nil {
			i.logger.Error("Failed to finish trace", "trace_id", traceID, "error", finishErr)
		}
		return nil, fmt.Errorf("tool %s failed: %w", req.Tool, err)
	}

	status := ResultStatusOK
	traceStatus := trace.InvocationStatusOK
	if envelope.Status == ResultStatusAwaitingApproval {
		status = ResultStatusAwaitingApproval
		traceStatus = trace.InvocationStatusAwaitingApproval
	}

	if finishErr := i.tracer.Finish(traceID, traceStatus, envelope.Detail); finishErr != nil {
		i.logger.Error("Failed to finish trace", "trace_id", traceID, "error", finishErr)
	}

	data := envelope.Result
	if data == nil {
		data = map[string]interface{}{}
	}

	i.logger.Info("Tool invocation completed",
		"tool", req.Tool,
		"agent", req.Agent,
		"status", status,
		"latency_ms", elapsed.Milliseconds())

	return &Result{
		Status:    status,
		Data:      data,
		LatencyMS: elapsed.Milliseconds(),
		TraceID:   traceID,
		Duplicate: duplicate,
	}, nil
}
