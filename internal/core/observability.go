package core

import (
	"context"
	"time"
	"usercore/internal/logger"
)

// Logger is the structured logger accepted by the service and mediator.
type Logger = logger.Logger

// MetricsRecorder observes the outcome of each dispatched request.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
