// Package gateway adapts the storefront HTTP client to the session ports.
package gateway

import (
	"context"
	"fmt"

	"github.com/Apurer/storefront-client/internal/clients/http/storefront"
	"github.com/Apurer/storefront-client/internal/domains/session/domain"
	"github.com/Apurer/storefront-client/internal/domains/session/ports"
)

// Client is the subset of the storefront client the session uses.
type Client interface {
	Login(ctx context.Context, email, password string) (storefront.LoginResult, error)
	Register(ctx context.Context, input storefront.RegisterInput) error
}

type Gateway struct {
	client Client
}

func New(client Client) *Gateway {
	return &Gateway{client: client}
}

// Login returns the issued token. A 401/403 answer is reported as ErrAuth.
func (g *Gateway) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	result, err := g.client.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		if storefront.IsUnauthorized(err) {
			return "", fmt.Errorf("%w: %w", domain.ErrAuth, err)
		}
		return "", err
	}
	return result.Token, nil
}

func (g *Gateway) Register(ctx context.Context, reg domain.Registration) error {
	return g.client.Register(ctx, storefront.RegisterInput{
		Email:       reg.Email,
		Password:    reg.Password,
		PhoneNumber: reg.PhoneNumber,
		Name:        reg.Name,
	})
}

var _ ports.Gateway = (*Gateway)(nil)
