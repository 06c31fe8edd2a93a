package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/Apurer/storefront-client/internal/domains/catalog/domain"
	"github.com/Apurer/storefront-client/internal/domains/orders/domain"
	sessiondomain "github.com/Apurer/storefront-client/internal/domains/session/domain"
)

type fakeIdentity struct {
	identity sessiondomain.Identity
	err      error
	calls    int
}

func (f *fakeIdentity) RequireIdentity(context.Context) (sessiondomain.Identity, error) {
	f.calls++
	return f.identity, f.err
}

type fakeOrdersGateway struct {
	mu        sync.Mutex
	requests  []domain.OrderRequest
	createErr error
	deleteErr error
	deleted   []string
	summary   []domain.Order
	list      []domain.Order
	listErr   error
	// onFetch runs inside a summary fetch, before it returns.
	onFetch func()
}

func (f *fakeOrdersGateway) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.createErr != nil {
		return domain.Order{}, f.createErr
	}
	return domain.Order{ID: "301", UserID: req.UserID, Customer: req.Customer}, nil
}

func (f *fakeOrdersGateway) ListOrders(context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Order(nil), f.list...), nil
}

func (f *fakeOrdersGateway) OrderSummary(context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	result := append([]domain.Order(nil), f.summary...)
	err := f.listErr
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *fakeOrdersGateway) DeleteOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCatalog struct {
	products   []catalogdomain.Product
	refreshErr error
	refreshes  int
}

func (f *fakeCatalog) Lookup(id string) (catalogdomain.Product, bool) {
	for _, p := range f.products {
		if p.ID == id {
			return p, true
		}
	}
	return catalogdomain.Product{}, false
}

func (f *fakeCatalog) First() (catalogdomain.Product, bool) {
	if len(f.products) == 0 {
		return catalogdomain.Product{}, false
	}
	return f.products[0], true
}

func (f *fakeCatalog) Refresh(context.Context) ([]catalogdomain.Product, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.products, nil
}

type countingList struct {
	refreshes int
	err       error
}

func (c *countingList) Refresh(context.Context) ([]domain.Order, error) {
	c.refreshes++
	return nil, c.err
}

func kopi() catalogdomain.Product {
	return catalogdomain.Product{ID: "1", Code: "KOP-01", Name: "Kopi", Price: decimal.NewFromInt(15000), Quantity: 10}
}

func TestSubmit_SendsDraftAndResets(t *testing.T) {
	catalog := &fakeCatalog{products: []catalogdomain.Product{kopi()}}
	gw := &fakeOrdersGateway{}
	list := &countingList{}
	identity := &fakeIdentity{identity: sessiondomain.Identity{UserID: "42"}}
	submitter := NewSubmitter(identity, gw, catalog, WithListRefresher(list))

	draft := domain.NewDraft(catalog)
	draft.SetCustomerName("Rina")
	require.NoError(t, draft.SetQuantity(3))
	key := draft.Snapshot().SubmissionKey

	order, err := submitter.Submit(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "301", order.ID)

	require.Len(t, gw.requests, 1)
	assert.Equal(t, domain.OrderRequest{
		UserID:         "42",
		Customer:       "Rina",
		Items:          []domain.Item{{ProductCode: "KOP-01", Quantity: 3}},
		IdempotencyKey: key,
	}, gw.requests[0])

	state := draft.Snapshot()
	assert.Equal(t, 1, state.Quantity)
	assert.Equal(t, "1", state.SelectedProductID)
	assert.Equal(t, "42", state.UserID)
	assert.NotEqual(t, key, state.SubmissionKey)
	assert.True(t, decimal.NewFromInt(15000).Equal(state.TotalAmount))
	assert.Equal(t, 1, catalog.refreshes)
	assert.Equal(t, 1, list.refreshes)
}

func TestSubmit_ValidationNeverReachesNetwork(t *testing.T) {
	catalog := &fakeCatalog{}
	gw := &fakeOrdersGateway{}
	submitter := NewSubmitter(&fakeIdentity{identity: sessiondomain.Identity{UserID: "42"}}, gw, catalog)

	_, err := submitter.Submit(context.Background(), domain.NewDraft(catalog))
	require.ErrorIs(t, err, domain.ErrValidation)
	require.ErrorIs(t, err, domain.ErrEmptyCatalog)
	assert.Empty(t, gw.requests)
	assert.Zero(t, catalog.refreshes)
}

func TestSubmit_MissingIdentityIsAuthError(t *testing.T) {
	catalog := &fakeCatalog{products: []catalogdomain.Product{kopi()}}
	gw := &fakeOrdersGateway{}
	submitter := NewSubmitter(&fakeIdentity{err: sessiondomain.ErrAuth}, gw, catalog)

	_, err := submitter.Submit(context.Background(), domain.NewDraft(catalog))
	require.ErrorIs(t, err, sessiondomain.ErrAuth)
	assert.Empty(t, gw.requests)
}

func TestSubmit_GatewayFailureLeavesDraftUntouched(t *testing.T) {
	catalog := &fakeCatalog{products: []catalogdomain.Product{kopi()}}
	gw := &fakeOrdersGateway{createErr: errors.New("503")}
	submitter := NewSubmitter(&fakeIdentity{identity: sessiondomain.Identity{UserID: "42"}}, gw, catalog)

	draft := domain.NewDraft(catalog)
	require.NoError(t, draft.SetQuantity(2))
	before := draft.Snapshot()

	_, err := submitter.Submit(context.Background(), draft)
	require.Error(t, err)
	assert.Equal(t, before, draft.Snapshot())
	assert.Len(t, gw.requests, 1)
	assert.Zero(t, catalog.refreshes)

	// A user retry reuses the same key so the server can deduplicate.
	gw.createErr = nil
	_, err = submitter.Submit(context.Background(), draft)
	require.NoError(t, err)
	require.Len(t, gw.requests, 2)
	assert.Equal(t, gw.requests[0].IdempotencyKey, gw.requests[1].IdempotencyKey)
}

func TestSubmit_RefreshFailuresAreNotReturned(t *testing.T) {
	catalog := &fakeCatalog{products: []catalogdomain.Product{kopi()}, refreshErr: errors.New("catalog down")}
	list := &countingList{err: errors.New("list down")}
	submitter := NewSubmitter(&fakeIdentity{identity: sessiondomain.Identity{UserID: "42"}}, &fakeOrdersGateway{}, catalog, WithListRefresher(list))

	order, err := submitter.Submit(context.Background(), domain.NewDraft(catalog))
	require.NoError(t, err)
	assert.Equal(t, "301", order.ID)
	assert.Equal(t, 1, list.refreshes)
}

func TestSubmit_NilDraft(t *testing.T) {
	submitter := NewSubmitter(&fakeIdentity{}, &fakeOrdersGateway{}, &fakeCatalog{})
	_, err := submitter.Submit(context.Background(), nil)
	require.Error(t, err)
}
