package metrics

import (
	"context"
	"time"
)

type Collector interface {
	RecordToolExecution(ctx context.Context, toolName string, duration time.Duration, success bool)
	RecordCapabilityInvocation(ctx context.Context, tool string, agent string, duration time.Duration, success bool)
	RecordStepSettled(ctx context.Context, stepType string, status string)
	RecordGatewayRetry(ctx context.Context)
	Close() error
}

type NoOpCollector struct{}

func NewNoOpCollector() *NoOpCollector {
	return &NoOpCollector{}
}

func (c *NoOpCollector) RecordToolExecution(ctx context.Context, toolName string, duration time.Duration, success bool) {
}

func (c *NoOpCollector) RecordCapabilityInvocation(ctx context.Context, tool string, agent string, duration time.Duration, success bool) {
}

func (c *NoOpCollector) RecordStepSettled(ctx context.Context, stepType string, status string) {
}

func (c *NoOpCollector) RecordGatewayRetry(ctx context.Context) {
}

func (c *NoOpCollector) Close() error {
	return nil
}
