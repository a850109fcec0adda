package auth

import "context"

type claimsKey struct{}

// WithClaims stores the verified token claims for the rest of the request.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the verified claims, or nil for anonymous
// requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

// WithSubject attaches a bare subject, as if a token for it had been verified.
func WithSubject(ctx context.Context, sub string) context.Context {
	return WithClaims(ctx, &Claims{Sub: sub})
}

// SubjectFromContext is the authenticated user id, or "".
func SubjectFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.Sub
	}
	return ""
}
