package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ID accepts both JSON numbers and strings; the API is not consistent about which it sends.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// LoginResult is the body of POST /auth/login.
type LoginResult struct {
	Token string `json:"token"`
}

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

// Product is a catalog record as served by GET /products. Older deployments
// send productCode/productName instead of code/name; Canonical folds them.
type Product struct {
	ID          ID              `json:"id"`
	Code        string          `json:"code,omitempty"`
	ProductCode string          `json:"productCode,omitempty"`
	Name        string          `json:"name,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Canonical returns the record with alias fields folded into Code and Name.
func (p Product) Canonical() Product {
	if p.Code == "" {
		p.Code = p.ProductCode
	}
	if p.Name == "" {
		p.Name = p.ProductName
	}
	p.ProductCode = ""
	p.ProductName = ""
	return p
}

// ProductInput is the body of POST /products. The name is sent under both
// keys because deployments disagree on which one they read. Price goes out as
// a bare JSON number.
type ProductInput struct {
	Name        string      `json:"name"`
	ProductName string      `json:"productName"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Quantity    int         `json:"quantity"`
}

// PriceNumber renders a decimal price for ProductInput.
func PriceNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// OrderLine is one product row of an order.
type OrderLine struct {
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName,omitempty"`
	Name        string          `json:"name,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Order is a persisted transaction. Date falls back to createdAt when absent.
type Order struct {
	ID          ID              `json:"id"`
	InvoiceNo   string          `json:"invoiceNo,omitempty"`
	Customer    string          `json:"customer,omitempty"`
	UserID      ID              `json:"userId"`
	Date        string          `json:"date,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Products    []OrderLine     `json:"products"`
}

// OrderItem references a product by code in a create request.
type OrderItem struct {
	ProductCode string `json:"productCode"`
	Quantity    int    `json:"quantity"`
}

// CreateOrderBody is the body of POST /transactions.
type CreateOrderBody struct {
	UserID   string      `json:"userId"`
	Customer string      `json:"customer"`
	Product  []OrderItem `json:"product"`
}
