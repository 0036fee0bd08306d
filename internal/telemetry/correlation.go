package telemetry

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// CorrelationHeader — имя HTTP/AMQP заголовка с correlation id.
const CorrelationHeader = "x-correlation-id"

const ctxCorrelationID ctxKey = "correlation_id"

// EnsureCorrelationID возвращает первый непустой кандидат.
// Если все кандидаты пустые (или состоят из пробелов), генерирует новый id.
func EnsureCorrelationID(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return NewCorrelationID()
}

// NewCorrelationID генерирует новый correlation id (32 hex-символа без дефисов).
func NewCorrelationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithCorrelationIDContext кладёт correlation id в контекст.
func WithCorrelationIDContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ctxCorrelationID, correlationID)
}

// CorrelationIDFromContext достаёт correlation id из контекста.
// Возвращает пустую строку, если id не установлен.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxCorrelationID).(string); ok {
		return id
	}
	return ""
}
