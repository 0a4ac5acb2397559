package domain

import "context"

type contextKey string

const apiKeyContextKey contextKey = "parallel-api-key"

// WithAPIKey stashes a credential forwarded by the hosting shell (an
// inbound x-api-key header) into the context for later resolution.
func WithAPIKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, apiKeyContextKey, key)
}

// APIKeyFromContext returns the forwarded credential, if any.
func APIKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(apiKeyContextKey).(string); ok {
		return v
	}
	return ""
}
