package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/Apurer/storefront-client/internal/domains/catalog/domain"
)

var (
	// ErrValidation wraps every local rejection. It never reaches the network.
	ErrValidation = errors.New("order validation failed")

	ErrNoIdentity      = errors.New("no logged-in user")
	ErrEmptyCatalog    = errors.New("catalog is empty")
	ErrNoSelection     = errors.New("no product selected")
	ErrUnknownProduct  = errors.New("product is not in the catalog")
	ErrInvalidQuantity = errors.New("quantity must be a whole number of at least 1")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Catalog is the lookup the draft prices against.
type Catalog interface {
	Lookup(id string) (catalogdomain.Product, bool)
	First() (catalogdomain.Product, bool)
}

// DraftState is a value copy of a draft.
type DraftState struct {
	UserID            string
	CustomerName      string
	SelectedProductID string
	ProductCode       string
	UnitPrice         decimal.Decimal
	Quantity          int
	TotalAmount       decimal.Decimal
	SubmissionKey     string
}

// Draft is an order being edited. TotalAmount is derived on every transition
// as price(selection) × quantity against the current catalog; it has no setter.
type Draft struct {
	catalog Catalog

	mu    sync.Mutex
	state DraftState
}

// NewDraft starts a draft with quantity 1 and the catalog's first product.
func NewDraft(catalog Catalog) *Draft {
	d := &Draft{catalog: catalog}
	d.Reset()
	return d
}

// SetProduct selects id. An id the catalog does not know is rejected and the
// prior selection kept.
func (d *Draft) SetProduct(id string) error {
	id = strings.TrimSpace(id)
	p, ok := d.catalog.Lookup(id)
	if !ok {
		return invalid(fmt.Errorf("%w: %q", ErrUnknownProduct, id))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.SelectedProductID = p.ID
	d.recompute(p, true)
	return nil
}

// SetQuantity rejects n < 1 and leaves the draft untouched.
func (d *Draft) SetQuantity(n int) error {
	if n < 1 {
		return invalid(ErrInvalidQuantity)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Quantity = n
	d.recomputeFromCatalog()
	return nil
}

// ParseQuantity reads a user-entered quantity. Fractions and non-numeric input
// are rejected.
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, invalid(ErrInvalidQuantity)
	}
	return n, nil
}

func (d *Draft) SetCustomerName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.CustomerName = name
}

// BindUser records the identity the draft will be submitted for.
func (d *Draft) BindUser(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.UserID = userID
}

// OnCatalogRefreshed re-validates the selection after the catalog was replaced.
// A selection that no longer resolves falls back to the first product, or to
// no selection when the catalog is empty.
func (d *Draft) OnCatalogRefreshed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.catalog.Lookup(d.state.SelectedProductID); ok && d.state.SelectedProductID != "" {
		d.recompute(p, true)
		return
	}
	d.selectFirst()
}

// Reset returns the draft to quantity 1 on the first product and issues a new
// submission key. Customer name and bound user are kept.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Quantity = 1
	d.state.SubmissionKey = uuid.NewString()
	d.selectFirst()
}

func (d *Draft) Snapshot() DraftState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Validate reports whether the draft may be submitted.
func (d *Draft) Validate(identityPresent bool) error {
	if !identityPresent {
		return invalid(ErrNoIdentity)
	}
	if _, ok := d.catalog.First(); !ok {
		return invalid(ErrEmptyCatalog)
	}
	state := d.Snapshot()
	if state.SelectedProductID == "" {
		return invalid(ErrNoSelection)
	}
	if _, ok := d.catalog.Lookup(state.SelectedProductID); !ok {
		return invalid(fmt.Errorf("%w: %q", ErrUnknownProduct, state.SelectedProductID))
	}
	if state.Quantity < 1 {
		return invalid(ErrInvalidQuantity)
	}
	return nil
}

func (d *Draft) selectFirst() {
	p, ok := d.catalog.First()
	if !ok {
		d.state.SelectedProductID = ""
		d.recompute(catalogdomain.Product{}, false)
		return
	}
	d.state.SelectedProductID = p.ID
	d.recompute(p, true)
}

func (d *Draft) recomputeFromCatalog() {
	p, ok := d.catalog.Lookup(d.state.SelectedProductID)
	d.recompute(p, ok && d.state.SelectedProductID != "")
}

func (d *Draft) recompute(p catalogdomain.Product, selected bool) {
	if !selected {
		d.state.ProductCode = ""
		d.state.UnitPrice = decimal.Zero
		d.state.TotalAmount = decimal.Zero
		return
	}
	d.state.ProductCode = p.OrderCode()
	d.state.UnitPrice = p.Price
	d.state.TotalAmount = p.Price.Mul(decimal.NewFromInt(int64(d.state.Quantity)))
}
