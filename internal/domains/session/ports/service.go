package ports

import (
	"context"

	"github.com/Apurer/storefront-client/internal/domains/session/domain"
)

// IdentityResolver derives the current identity from the credential store.
// A false second return means "not logged in".
type IdentityResolver interface {
	Resolve(ctx context.Context) (domain.Identity, bool)
}

// Gateway is the outbound auth API.
type Gateway interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Register(ctx context.Context, reg domain.Registration) error
}

// Service exposes session use cases to the CLI and other domains.
type Service interface {
	Login(ctx context.Context, email, password string) (domain.Identity, error)
	Register(ctx context.Context, reg domain.Registration) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (domain.Identity, error)
	RequireIdentity(ctx context.Context) (domain.Identity, error)
}
