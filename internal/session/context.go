package session

import "context"

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Lookup returns the session carried by ctx, if any.
func Lookup(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// FromContext returns the session carried by ctx. It panics when there is
// none: reaching a session consumer without the session middleware is a
// wiring mistake.
func FromContext(ctx context.Context) *Session {
	s, ok := Lookup(ctx)
	if !ok {
		panic("session: FromContext called outside a session scope; install middleware.Session before this handler")
	}
	return s
}
