package models

import "context"

// AnonymousCaller is used when the upstream gateway forwarded no identity.
const AnonymousCaller = "anonymous"

// Caller is the already-authenticated identity forwarded by the auth gateway.
// The market core only uses it for request attribution in logs.
type Caller struct {
	ID string `json:"id"`
}

type callerContextKey struct{}

// WithCaller returns a copy of ctx carrying caller
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the caller stored in ctx, or the anonymous caller.
func CallerFromContext(ctx context.Context) Caller {
	if ctx != nil {
		if caller, ok := ctx.Value(callerContextKey{}).(Caller); ok && caller.ID != "" {
			return caller
		}
	}
	return Caller{ID: AnonymousCaller}
}
