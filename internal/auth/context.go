// ABOUTME: Request context helpers carrying the authenticated subject
// ABOUTME: Provides WithSubject/FromContext for handlers behind RequireBearer

package auth

import "context"

// subjectKey is the key type for storing the subject in context.Context.
type subjectKey struct{}

// WithSubject returns a new context carrying the authenticated subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// FromContext returns the authenticated subject, or "" when there is none.
func FromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}
