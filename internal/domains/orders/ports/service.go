package ports

import (
	"context"

	catalogdomain "github.com/Apurer/storefront-client/internal/domains/catalog/domain"
	"github.com/Apurer/storefront-client/internal/domains/orders/domain"
	sessiondomain "github.com/Apurer/storefront-client/internal/domains/session/domain"
)

// Gateway is the outbound transactions API.
type Gateway interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	OrderSummary(ctx context.Context) ([]domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// IdentitySource gates authenticated actions. Implementations clear the
// credential and return an auth error when no identity resolves.
type IdentitySource interface {
	RequireIdentity(ctx context.Context) (sessiondomain.Identity, error)
}

// CatalogRefresher is refreshed after a successful submission because the
// order changed remote stock.
type CatalogRefresher interface {
	Refresh(ctx context.Context) ([]catalogdomain.Product, error)
}

// ListRefresher is refreshed after a successful submission.
type ListRefresher interface {
	Refresh(ctx context.Context) ([]domain.Order, error)
}

// Submitter turns a draft into a persisted order.
type Submitter interface {
	Submit(ctx context.Context, draft *domain.Draft) (domain.Order, error)
}

// Reconciler owns the locally held order list.
type Reconciler interface {
	Refresh(ctx context.Context) ([]domain.Order, error)
	Orders() []domain.Order
	Remove(ctx context.Context, id string) error
	History(userID string) []domain.HistoryEntry
}
