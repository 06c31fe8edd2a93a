// Package gateway adapts the storefront HTTP client to the catalog ports.
package gateway

import (
	"context"

	"github.com/Apurer/storefront-client/internal/clients/http/storefront"
	"github.com/Apurer/storefront-client/internal/domains/catalog/domain"
	"github.com/Apurer/storefront-client/internal/domains/catalog/ports"
)

// Client is the subset of the storefront client the catalog uses.
type Client interface {
	ListProducts(ctx context.Context) ([]storefront.Product, error)
	CreateProduct(ctx context.Context, input storefront.ProductInput) (storefront.Product, error)
}

type Gateway struct {
	client Client
}

func New(client Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) ListProducts(ctx context.Context) ([]domain.Product, error) {
	records, err := g.client.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(records))
	for _, r := range records {
		products = append(products, ToDomain(r))
	}
	return products, nil
}

func (g *Gateway) CreateProduct(ctx context.Context, in domain.NewProduct) (domain.Product, error) {
	created, err := g.client.CreateProduct(ctx, storefront.ProductInput{
		Name:        in.Name,
		Description: in.Description,
		Price:       storefront.PriceNumber(in.Price),
		Quantity:    in.Quantity,
	})
	if err != nil {
		return domain.Product{}, err
	}
	return ToDomain(created), nil
}

// ToDomain maps a wire record to the catalog model.
func ToDomain(p storefront.Product) domain.Product {
	p = p.Canonical()
	return domain.Product{
		ID:          p.ID.String(),
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
	}
}

var _ ports.Gateway = (*Gateway)(nil)
