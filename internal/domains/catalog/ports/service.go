package ports

import (
	"context"

	"github.com/Apurer/storefront-client/internal/domains/catalog/domain"
)

// Gateway is the outbound catalog API.
type Gateway interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, in domain.NewProduct) (domain.Product, error)
}

// RefreshFunc is called with the new contents after every successful refresh.
type RefreshFunc func(products []domain.Product)

// Service exposes the catalog cache to the CLI and the orders domain.
type Service interface {
	Refresh(ctx context.Context) ([]domain.Product, error)
	Lookup(id string) (domain.Product, bool)
	First() (domain.Product, bool)
	Snapshot() []domain.Product
	Len() int
	Subscribe(fn RefreshFunc) (unsubscribe func())
	CreateProduct(ctx context.Context, in domain.NewProduct) (domain.Product, error)
}
