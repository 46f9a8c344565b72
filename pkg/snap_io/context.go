// pkg/snap_io/context.go

package snap_io

import (
	"context"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/morselabs/wpsnap/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RuntimeContext carries the per-command context, logger, telemetry span and
// start timestamp through every package. One is created per CLI invocation.
type RuntimeContext struct {
	Ctx       context.Context
	Log       *zap.Logger
	Span      trace.Span
	Timestamp time.Time
	Command   string
}

// NewContext sets up tracing and logging for one command invocation.
func NewContext(ctx context.Context, cmdName string) *RuntimeContext {
	ctx, span := telemetry.Start(ctx, cmdName)
	traceID := span.SpanContext().TraceID().String()

	log := zap.L().With(
		zap.String("command", cmdName),
		zap.String("trace_id", traceID),
	).Named(cmdName)

	return &RuntimeContext{
		Ctx:       ctx,
		Log:       log,
		Span:      span,
		Timestamp: time.Now(),
		Command:   cmdName,
	}
}

// HandlePanic recovers a panic, logs it, and converts it to an error.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = cerr.AssertionFailedf("panic: %v", r)
		rc.Log.Error("Panic recovered", zap.Any("panic", r))
	}
}

// End logs the command outcome and closes the telemetry span.
func (rc *RuntimeContext) End(errPtr *error) {
	defer rc.Span.End()

	duration := time.Since(rc.Timestamp)
	if *errPtr == nil {
		rc.Log.Info("Command completed", zap.Duration("duration", duration))
		return
	}
	rc.Span.RecordError(*errPtr)
	rc.Log.Error("Command failed", zap.Duration("duration", duration), zap.Error(*errPtr))
}
