package audit

import "context"

type contextKey struct{}

// RequestMeta identifies the HTTP request behind an audited action
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
	Actor     string // authenticated subject, empty when auth is off
}

// WithRequestMeta attaches request metadata to ctx
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, contextKey{}, meta)
}

// RequestMetaFromContext returns the request metadata stored in ctx, if any
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(contextKey{}).(RequestMeta); ok {
		return meta
	}
	return RequestMeta{}
}

// WithActor records the authenticated caller on the request metadata in ctx
func WithActor(ctx context.Context, actor string) context.Context {
	meta := RequestMetaFromContext(ctx)
	meta.Actor = actor
	return WithRequestMeta(ctx, meta)
}
