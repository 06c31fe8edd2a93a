package ports

import "context"

// CredentialKey is the fixed name persistent stores keep the bearer token under.
const CredentialKey = "storefront.token"

// CredentialStore holds the single opaque bearer token of the process.
// Implementations pass the token through untouched.
type CredentialStore interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
