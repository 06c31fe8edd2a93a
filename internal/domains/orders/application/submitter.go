package application

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/Apurer/storefront-client/internal/domains/orders/domain"
	"github.com/Apurer/storefront-client/internal/domains/orders/ports"
)

// Submitter sends a draft to the API exactly once per call.
type Submitter struct {
	identity ports.IdentitySource
	gateway  ports.Gateway
	catalog  ports.CatalogRefresher
	list     ports.ListRefresher
	logger   *slog.Logger
}

type SubmitterOption func(*Submitter)

// WithListRefresher refreshes the order list after a successful submission.
func WithListRefresher(list ports.ListRefresher) SubmitterOption {
	return func(s *Submitter) {
		s.list = list
	}
}

func WithSubmitterLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSubmitter(identity ports.IdentitySource, gateway ports.Gateway, catalog ports.CatalogRefresher, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		identity: identity,
		gateway:  gateway,
		catalog:  catalog,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Submit checks identity and the draft locally, then creates the order.
// On failure the draft is left as it was so the user can retry. On success the
// draft is reset and the catalog and order list are refreshed; refresh
// failures are logged because the order already exists.
func (s *Submitter) Submit(ctx context.Context, draft *domain.Draft) (domain.Order, error) {
	if draft == nil {
		return domain.Order{}, errors.New("draft is nil")
	}
	identity, err := s.identity.RequireIdentity(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	if err := draft.Validate(true); err != nil {
		return domain.Order{}, err
	}

	state := draft.Snapshot()
	order, err := s.gateway.CreateOrder(ctx, domain.OrderRequest{
		UserID:         identity.UserID,
		Customer:       state.CustomerName,
		Items:          []domain.Item{{ProductCode: state.ProductCode, Quantity: state.Quantity}},
		IdempotencyKey: state.SubmissionKey,
	})
	if err != nil {
		return domain.Order{}, err
	}

	draft.BindUser(identity.UserID)
	draft.Reset()
	if s.catalog != nil {
		if _, err := s.catalog.Refresh(ctx); err != nil {
			s.logger.WarnContext(ctx, "catalog refresh after order failed",
				slog.String("order.id", order.ID), slog.String("error", err.Error()))
		}
	}
	if s.list != nil {
		if _, err := s.list.Refresh(ctx); err != nil {
			s.logger.WarnContext(ctx, "order list refresh after order failed",
				slog.String("order.id", order.ID), slog.String("error", err.Error()))
		}
	}
	return order, nil
}

var _ ports.Submitter = (*Submitter)(nil)
