// Package gateway adapts the storefront HTTP client to the orders ports.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/Apurer/storefront-client/internal/clients/http/storefront"
	"github.com/Apurer/storefront-client/internal/domains/orders/domain"
	"github.com/Apurer/storefront-client/internal/domains/orders/ports"
)

// Client is the subset of the storefront client the orders domain uses.
type Client interface {
	CreateOrder(ctx context.Context, userID string, order storefront.CreateOrderBody, optFns ...storefront.RequestOption) (storefront.Order, error)
	ListOrders(ctx context.Context) ([]storefront.Order, error)
	OrderSummary(ctx context.Context) ([]storefront.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type Gateway struct {
	client Client
}

func New(client Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	body := storefront.CreateOrderBody{Customer: req.Customer}
	for _, item := range req.Items {
		body.Product = append(body.Product, storefront.OrderItem{ProductCode: item.ProductCode, Quantity: item.Quantity})
	}
	created, err := g.client.CreateOrder(ctx, req.UserID, body, storefront.WithIdempotencyKey(req.IdempotencyKey))
	if err != nil {
		return domain.Order{}, err
	}
	return ToDomain(created), nil
}

func (g *Gateway) ListOrders(ctx context.Context) ([]domain.Order, error) {
	records, err := g.client.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

func (g *Gateway) OrderSummary(ctx context.Context) ([]domain.Order, error) {
	records, err := g.client.OrderSummary(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

func (g *Gateway) DeleteOrder(ctx context.Context, id string) error {
	return g.client.DeleteOrder(ctx, id)
}

// ToDomain maps a wire record to the orders model.
func ToDomain(o storefront.Order) domain.Order {
	order := domain.Order{
		ID:          o.ID.String(),
		InvoiceNo:   o.InvoiceNo,
		Customer:    o.Customer,
		UserID:      o.UserID.String(),
		Date:        parseDate(o.Date, o.CreatedAt),
		TotalAmount: o.TotalAmount,
	}
	for _, line := range o.Products {
		name := line.ProductName
		if name == "" {
			name = line.Name
		}
		order.Lines = append(order.Lines, domain.LineItem{
			ProductCode: line.ProductCode,
			ProductName: name,
			Price:       line.Price,
			Quantity:    line.Quantity,
		})
	}
	return order
}

func toDomainList(records []storefront.Order) []domain.Order {
	orders := make([]domain.Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, ToDomain(r))
	}
	return orders
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate returns the zero time when neither value parses.
func parseDate(values ...string) time.Time {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

var _ ports.Gateway = (*Gateway)(nil)
