package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gastos/internal/core"
)

type contextKey string

const loggerKey contextKey = "logger"

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request logger, or one wrapping slog.Default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
		return l
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// Middleware stores logger in every request context, enriched with the
// request id when extractRequestID returns one.
func Middleware(logger *Logger, extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if extractRequestID != nil {
				if id := extractRequestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

// StructuredLogger provides domain-level log helpers. Request-scoped loggers
// found in the context take precedence over the base logger.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) from(ctx context.Context, component string) *Logger {
	return sl.logger.contextLogger(ctx).WithComponent(component)
}

// LogHTTPEnd logs a completed request at a level matching its status.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, elapsed time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithHTTPResponse(statusCode, elapsed.Milliseconds()).
		WithClientIP(clientIP)
	sl.from(ctx, ComponentHTTP).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogVoiceResolved(ctx context.Context, userID, query, level, label string) {
	fields := NewFields().
		WithUser(userID).
		WithMatch(query, level, label).
		WithOperation(OpResolve)
	sl.from(ctx, ComponentVoice).InfoContext(ctx, "Voice command resolved", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogExpenseCreated(ctx context.Context, e core.Expense, ref string) {
	fields := NewFields().
		WithUser(e.UserID).
		WithExpense(e).
		WithOperation(OpCreate)
	fields[FieldRef] = ref
	sl.from(ctx, ComponentExpense).InfoContext(ctx, "Expense created", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation)
	sl.from(ctx, component).ErrorContext(ctx, msg, fields.ToSlice()...)
}
