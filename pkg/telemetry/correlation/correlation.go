// Package correlation propagates a per-request correlation id through contexts.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the correlation id between services.
const Header = "X-Correlation-ID"

type correlationKey struct{}

// ContextWithCorrelationID stores the correlation id in the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// ExtractCorrelationID returns the correlation id from the context, or "".
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}

// EnsureCorrelationID returns a context that is guaranteed to carry a
// correlation id, generating one when absent.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := ExtractCorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return ContextWithCorrelationID(ctx, id), id
}
