// Пакет ctxmeta — метаданные запроса, которые прокидываются через context.Context:
// request_id, инициатор запроса и идентификаторы активного спана.
// HTTP-слой, консьюмер и логгер зависят от этого пакета, но не друг от друга.
package ctxmeta

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

const (
	KeyRequestID ctxKey = "request_id"
	KeyUser      ctxKey = "user"
)

// WithRequestID кладёт request_id в контекст (если пусто — ничего не делает).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, KeyRequestID, requestID)
}

// RequestIDFromContext достаёт request_id из контекста.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, KeyRequestID)
}

// WithUser — email инициатора запроса (для логов); пустой email не сохраняется.
func WithUser(ctx context.Context, email string) context.Context {
	return withString(ctx, KeyUser, email)
}

func UserFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, KeyUser)
}

// TraceIDFromContext — trace_id активного спана.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", false
	}
	return sc.TraceID().String(), true
}

// SpanIDFromContext — span_id активного спана.
func SpanIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", false
	}
	return sc.SpanID().String(), true
}

// Fields — пары ключ/значение для структурного логгера; отсутствующие значения пропускаются.
func Fields(ctx context.Context) []any {
	var out []any
	if v, ok := RequestIDFromContext(ctx); ok {
		out = append(out, "request_id", v)
	}
	if v, ok := TraceIDFromContext(ctx); ok {
		out = append(out, "trace_id", v)
	}
	if v, ok := SpanIDFromContext(ctx); ok {
		out = append(out, "span_id", v)
	}
	if v, ok := UserFromContext(ctx); ok {
		out = append(out, "user", v)
	}
	return out
}

func withString(ctx context.Context, key ctxKey, v string) context.Context {
	if ctx == nil || v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func stringFrom(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
