package errors

import (
	"context"

	"github.com/google/uuid"
)

// contextKey keeps request-scoped keys private to this package.
type contextKey string

const requestIDKey contextKey = "request_id"

// GenerateRequestID mints a fresh request identifier.
func GenerateRequestID() string {
	return uuid.New().String()
}

// WithRequestID stores the request ID on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID carried by the context, or "" when
// none was attached.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// RequestIDOrGenerate prefers the context's request ID and mints one
// otherwise.
func RequestIDOrGenerate(ctx context.Context) string {
	if requestID := GetRequestID(ctx); requestID != "" {
		return requestID
	}
	return GenerateRequestID()
}
