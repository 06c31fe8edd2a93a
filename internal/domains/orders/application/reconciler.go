package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Apurer/storefront-client/internal/domains/orders/domain"
	"github.com/Apurer/storefront-client/internal/domains/orders/ports"
)

// Source selects the endpoint a refresh reads from.
type Source string

const (
	SourceSummary      Source = "summary"
	SourceTransactions Source = "transactions"
)

// ParseSource accepts "summary" or "transactions"; empty means summary.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case "", SourceSummary:
		return SourceSummary, nil
	case SourceTransactions:
		return SourceTransactions, nil
	default:
		return "", fmt.Errorf("unknown order source %q", s)
	}
}

type removal struct {
	id    string
	epoch uint64
}

// Reconciler holds the local order list. Deletions are applied only after the
// API confirmed them, and a refresh that started before a confirmed deletion
// cannot bring the deleted order back.
type Reconciler struct {
	gateway ports.Gateway
	source  Source

	mu       sync.Mutex
	orders   []domain.Order
	epoch    uint64
	inFlight int
	removed  []removal
}

func NewReconciler(gateway ports.Gateway, source Source) *Reconciler {
	if source == "" {
		source = SourceSummary
	}
	return &Reconciler{gateway: gateway, source: source}
}

// Refresh replaces the list with the server's view. Between overlapping
// refreshes the last one to resolve wins. On error the list is unchanged.
func (r *Reconciler) Refresh(ctx context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	r.inFlight++
	started := r.epoch
	r.mu.Unlock()

	fetched, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	defer r.pruneRemovals()
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(fetched))
	for _, o := range fetched {
		if r.removedSince(o.ID, started) {
			continue
		}
		orders = append(orders, o)
	}
	r.orders = orders
	return cloneOrders(orders), nil
}

func (r *Reconciler) Orders() []domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneOrders(r.orders)
}

// Remove deletes id remotely and, only once that succeeded, drops the matching
// entry from the local list without reordering the rest.
func (r *Reconciler) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := r.gateway.DeleteOrder(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.orders {
		if o.ID == id {
			r.orders = append(r.orders[:i:i], r.orders[i+1:]...)
			break
		}
	}
	if r.inFlight > 0 {
		r.epoch++
		r.removed = append(r.removed, removal{id: id, epoch: r.epoch})
	}
	return nil
}

// History lists userID's orders in list order, numbered from 1.
func (r *Reconciler) History(userID string) []domain.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := []domain.HistoryEntry{}
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		entries = append(entries, domain.HistoryEntry{Number: len(entries) + 1, Order: o})
	}
	return entries
}

func (r *Reconciler) fetch(ctx context.Context) ([]domain.Order, error) {
	if r.source == SourceTransactions {
		return r.gateway.ListOrders(ctx)
	}
	return r.gateway.OrderSummary(ctx)
}

func (r *Reconciler) removedSince(id string, epoch uint64) bool {
	for _, rm := range r.removed {
		if rm.id == id && rm.epoch > epoch {
			return true
		}
	}
	return false
}

// pruneRemovals forgets confirmed deletions once no refresh can be stale.
func (r *Reconciler) pruneRemovals() {
	if r.inFlight == 0 {
		r.removed = nil
	}
}

func cloneOrders(orders []domain.Order) []domain.Order {
	return append([]domain.Order{}, orders...)
}

var _ ports.Reconciler = (*Reconciler)(nil)
