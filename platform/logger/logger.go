// Package logger wraps slog with the handful of typed log events the
// application emits. This is part of the platform layer and contains no
// business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey carries the request ID through context.
	RequestIDKey contextKey = "request_id"
	// UserIDKey carries the acting user's ID through context.
	UserIDKey contextKey = "user_id"
)

// Logger embeds slog.Logger and adds typed event helpers.
type Logger struct {
	*slog.Logger
}

// New returns a text logger at debug level in development and a JSON
// logger at info level everywhere else.
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

// WithContext copies request_id and user_id out of ctx onto the logger
// when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = newLogger.WithUserID(userID)
	}

	return newLogger
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("user_id", userID)),
	}
}

// HTTPRequest logs one served request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// AuthEvent logs login, registration and token refresh outcomes.
// Failures go out at warn level with the reason attached.
func (l *Logger) AuthEvent(event, email string, success bool, reason string) {
	if success {
		l.Info("auth_event",
			slog.String("event", event),
			slog.String("email", email),
			slog.Bool("success", success),
		)
	} else {
		l.Warn("auth_event",
			slog.String("event", event),
			slog.String("email", email),
			slog.Bool("success", success),
			slog.String("reason", reason),
		)
	}
}

// PurchaseEvent logs lead purchase outcomes for the audit trail.
func (l *Logger) PurchaseEvent(leadID, userID string, creditsSpent, balanceAfter int, outcome string) {
	l.Info("purchase_event",
		slog.String("lead_id", leadID),
		slog.String("user_id", userID),
		slog.Int("credits_spent", creditsSpent),
		slog.Int("balance_after", balanceAfter),
		slog.String("outcome", outcome),
	)
}

// LedgerEvent logs credit ledger mutations (top-ups, refunds).
func (l *Logger) LedgerEvent(userID, txType string, amount int) {
	l.Info("ledger_event",
		slog.String("user_id", userID),
		slog.String("type", txType),
		slog.Int("amount", amount),
	)
}

// DatabaseError logs a failed database operation.
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs a request rejected by the rate limiter.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
