package shared

import "context"

// AnonymousOwner is the tenant used when anonymous fallback is enabled.
const AnonymousOwner = "anonymous"

// Identity is the authenticated caller resolved from a host session.
type Identity struct {
	UserID    string
	SessionID string
	PageID    string
	Anonymous bool
	// Context is the opaque host payload attached to documents created in this session.
	Context map[string]any
}

// OwnerID returns the tenant key for data scoping.
func (i Identity) OwnerID() string {
	if i.UserID == "" {
		return AnonymousOwner
	}
	return i.UserID
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
