package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyID          = errors.New("product id must not be empty")
	ErrEmptyName        = errors.New("product name must not be empty")
	ErrNegativePrice    = errors.New("product price must not be negative")
	ErrNegativeQuantity = errors.New("product quantity must not be negative")
	ErrInvalidPrice     = errors.New("product price must be a decimal number")
)

// Product is the catalog's read-only view of a sellable item.
type Product struct {
	ID          string
	Code        string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
}

// Validate enforces the invariants the order draft relies on for pricing.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// OrderCode is the reference an order line uses for this product.
// Records without a code are referenced by id.
func (p Product) OrderCode() string {
	if p.Code != "" {
		return p.Code
	}
	return p.ID
}

// NewProduct is the input for adding a product to the remote catalog.
type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
}

// NewProductInput validates and constructs a NewProduct.
func NewProductInput(name, description string, price decimal.Decimal, quantity int) (NewProduct, error) {
	in := NewProduct{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Price:       price,
		Quantity:    quantity,
	}
	if in.Name == "" {
		return NewProduct{}, ErrEmptyName
	}
	if in.Price.IsNegative() {
		return NewProduct{}, ErrNegativePrice
	}
	if in.Quantity < 0 {
		return NewProduct{}, ErrNegativeQuantity
	}
	return in, nil
}

// ParsePrice reads a user-entered price such as "15000" or "2500.50".
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, ErrInvalidPrice
	}
	return d, nil
}
