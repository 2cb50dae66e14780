package ediclient

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID сохраняет идентификатор входящего запроса в контексте.
// Клиент передаёт его backend в заголовке X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext возвращает идентификатор запроса или "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID возвращает идентификатор из контекста или новый UUID.
func requestID(ctx context.Context) string {
	if id := RequestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
