// ABOUTME: This file provides context-aware structured logging for the handbook service
// ABOUTME: Supports session ID, section ID, and retrieval stage propagation with JSON output format
package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

const (
	// Business context keys for handbook observability
	// These follow OpenTelemetry semantic conventions with 'handbook.' prefix
	SessionIDKey      ContextKey = "handbook.session.id"
	SectionIDKey      ContextKey = "handbook.section.id"
	RetrievalStageKey ContextKey = "handbook.retrieval.stage"
	JobIDKey          ContextKey = "handbook.job.id"
)

// ContextLogger provides context-aware logging with handbook business context
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger creates a new context-aware logger
func NewContextLogger(serviceName string) *ContextLogger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)

	return &ContextLogger{
		logger:      slog.New(handler),
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted and added as fields
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any

	if sessionID := ctx.Value(SessionIDKey); sessionID != nil {
		fields = append(fields, string(SessionIDKey), sessionID)
	}
	if sectionID := ctx.Value(SectionIDKey); sectionID != nil {
		fields = append(fields, string(SectionIDKey), sectionID)
	}
	if stage := ctx.Value(RetrievalStageKey); stage != nil {
		fields = append(fields, string(RetrievalStageKey), stage)
	}
	if jobID := ctx.Value(JobIDKey); jobID != nil {
		fields = append(fields, string(JobIDKey), jobID)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// Context helper functions

// WithSessionID adds the chat session ID to context for observability
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithSectionID adds the handbook section ID to context for observability
func WithSectionID(ctx context.Context, sectionID string) context.Context {
	return context.WithValue(ctx, SectionIDKey, sectionID)
}

// WithRetrievalStage adds the retrieval stage to context for observability
func WithRetrievalStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, RetrievalStageKey, stage)
}

// WithJobID adds the index job ID to context for observability
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
