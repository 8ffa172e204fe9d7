// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// TechnicianIDKey is the context key for the authenticated technician ID
	TechnicianIDKey contextKey = "technician_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and technician_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("request_id", requestID)),
		}
	}

	if technicianID, ok := ctx.Value(TechnicianIDKey).(string); ok && technicianID != "" {
		newLogger = newLogger.WithTechnicianID(technicianID)
	}

	return newLogger
}

// WithTechnicianID returns a logger with the technician ID attached.
func (l *Logger) WithTechnicianID(technicianID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("technician_id", technicianID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// BackendError logs a failed call against the job or media backend.
func (l *Logger) BackendError(operation string, err error) {
	l.Error("backend_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// UnknownStatus logs a backend status string that did not match the
// canonical table. The job continues with the safe default status.
func (l *Logger) UnknownStatus(raw string) {
	l.Warn("unknown_backend_status", slog.String("raw", raw))
}

// TransitionRejected logs a transition request that failed its guard.
func (l *Logger) TransitionRejected(offerID, target, reason string) {
	l.Warn("transition_rejected",
		slog.String("offer_id", offerID),
		slog.String("target", target),
		slog.String("reason", reason),
	)
}

// StalePointer logs a cached appointment pointer that was purged after the
// backend rejected it.
func (l *Logger) StalePointer(offerID, appointmentID string) {
	l.Warn("stale_appointment_pointer",
		slog.String("offer_id", offerID),
		slog.String("appointment_id", appointmentID),
	)
}

// GeocodeFailure logs an address that could not be resolved to coordinates.
func (l *Logger) GeocodeFailure(address string, err error) {
	l.Warn("geocode_failure",
		slog.String("address", address),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
