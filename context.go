package storefront

import "context"

type ctxKey string

const (
	ctxKeyToken     ctxKey = "storefront_token"
	ctxKeyRequestID ctxKey = "storefront_request_id"
)

// WithToken stores a per-call bearer token override in the context. The
// executor prefers it over RequestOptions.Token and the credential store.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

// TokenFromContext extracts a bearer token override from the context.
func TokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyToken).(string)
	return v
}

// WithRequestID pins the X-Request-ID header value for outgoing calls made
// under this context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFromContext extracts the pinned request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}
