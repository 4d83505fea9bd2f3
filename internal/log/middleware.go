package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger emits the request and domain events the API server
// logs, with the standard field names from fields.go.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogRequestStart logs the start of an HTTP request
func (sl *StructuredLogger) LogRequestStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	fields := NewFields().
		WithRequest(r).
		WithRequestID(requestID).
		WithClientIP(clientIP)

	sl.logger.InfoContext(ctx, "Request started", fields.ToSlice()...)
}

// LogRequestEnd logs the completion of an HTTP request. 4xx responses
// log at Warn, 5xx at Error.
func (sl *StructuredLogger) LogRequestEnd(ctx context.Context, r *http.Request, requestID string, statusCode int, duration time.Duration, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithRequest(r).
		WithRequestID(requestID).
		WithResponse(statusCode, duration).
		WithClientIP(clientIP).
		WithComponent(sl.logger.Component())

	sl.logger.Logger.Log(ctx, level, "Request completed", fields.ToSlice()...)
}

// LogRateLimited logs a request rejected by the rate limiter
func (sl *StructuredLogger) LogRateLimited(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithRequest(r).
		WithClientIP(clientIP)

	sl.logger.WarnContext(ctx, "Rate limit exceeded", fields.ToSlice()...)
}

// LogTransactionAdded logs successful transaction creation
func (sl *StructuredLogger) LogTransactionAdded(ctx context.Context, id, merchant string, amountCents int64, category string) {
	fields := NewFields().
		WithTransaction(id, merchant, amountCents, category).
		WithOperation(OpCreate).
		WithComponent(ComponentStore)

	sl.logger.Logger.InfoContext(ctx, "Transaction added", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
