package auth

import "context"

// Identity is the authenticated principal of a single request.
type Identity struct {
	SubjectID string
	Email     string
}

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok && id.SubjectID != ""
}

// IdentityFromToken builds the request identity for a verified token.
func IdentityFromToken(t Token) Identity {
	return Identity{SubjectID: t.SubjectID, Email: t.SubjectEmail}
}
