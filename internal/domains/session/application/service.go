package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/storefront-client/internal/domains/session/domain"
	"github.com/Apurer/storefront-client/internal/domains/session/ports"
)

// Service owns the login/logout lifecycle of the credential store.
type Service struct {
	gateway  ports.Gateway
	store    ports.CredentialStore
	resolver ports.IdentityResolver
}

func NewService(gateway ports.Gateway, store ports.CredentialStore, resolver ports.IdentityResolver) *Service {
	if resolver == nil {
		resolver = NewUnverifiedResolver(store)
	}
	return &Service{gateway: gateway, store: store, resolver: resolver}
}

// Login exchanges credentials for a token and keeps it only if an identity can be derived from it.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	creds, err := domain.NewCredentials(email, password)
	if err != nil {
		return domain.Identity{}, mapError(err)
	}
	token, err := s.gateway.Login(ctx, creds)
	if err != nil {
		return domain.Identity{}, err
	}
	if err := s.store.Set(ctx, token); err != nil {
		return domain.Identity{}, fmt.Errorf("store credential: %w", err)
	}
	identity, ok := s.resolver.Resolve(ctx)
	if !ok {
		rejected := fmt.Errorf("%w: %w", domain.ErrAuth, domain.ErrMissingSubject)
		if err := s.store.Clear(ctx); err != nil {
			return domain.Identity{}, errors.Join(rejected, fmt.Errorf("clear credential: %w", err))
		}
		return domain.Identity{}, rejected
	}
	return identity, nil
}

func (s *Service) Register(ctx context.Context, reg domain.Registration) error {
	if err := reg.Validate(); err != nil {
		return mapError(err)
	}
	return s.gateway.Register(ctx, reg)
}

func (s *Service) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// WhoAmI resolves the identity without side effects.
func (s *Service) WhoAmI(ctx context.Context) (domain.Identity, error) {
	identity, ok := s.resolver.Resolve(ctx)
	if !ok {
		return domain.Identity{}, domain.ErrAuth
	}
	return identity, nil
}

// RequireIdentity resolves the identity for an authenticated action.
// A credential that does not resolve is cleared so the caller prompts a fresh login.
func (s *Service) RequireIdentity(ctx context.Context) (domain.Identity, error) {
	identity, ok := s.resolver.Resolve(ctx)
	if ok {
		return identity, nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return domain.Identity{}, errors.Join(domain.ErrAuth, err)
	}
	return domain.Identity{}, domain.ErrAuth
}

var _ ports.Service = (*Service)(nil)
