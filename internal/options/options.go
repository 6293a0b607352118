package options

import "context"

type contextKey struct{}

// WithShowRaw marks the context so decoders attach raw diagnostic fields
// (framed and descrambled hex, unscaled values) to emitted readings.
func WithShowRaw(ctx context.Context, show bool) context.Context {
	if !show {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, true)
}

// ShowRaw reports whether raw diagnostic fields were requested.
func ShowRaw(ctx context.Context) bool {
	v, ok := ctx.Value(contextKey{}).(bool)
	return ok && v
}
