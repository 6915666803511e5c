package cart

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/attirely/storefront-backend/internal/catalog"
	"github.com/attirely/storefront-backend/internal/pricing"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/attirely/storefront-backend/pkg/enums"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
)

// Item is one cart line, unique by (productID, selectedSize). The product
// snapshot is copied at add time and never re-fetched.
type Item struct {
	ProductID    uuid.UUID       `json:"productId"`
	Product      catalog.Product `json:"product"`
	SelectedSize string          `json:"selectedSize,omitempty"`
	Quantity     int             `json:"quantity"`
}

// UnitPrice returns the line's effective unit price at full precision.
func (i Item) UnitPrice() decimal.Decimal {
	return pricing.EffectiveUnitPrice(i.Product, i.SelectedSize)
}

// AppliedDiscount is the single active discount for the cart session.
type AppliedDiscount struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// Snapshot is a derived, point-in-time view of the cart: the lines, the
// active discount and the totals recomputed through the pricing calculator.
type Snapshot struct {
	Items    []Item
	Discount *AppliedDiscount
	Totals   pricing.Totals
}

// Observer receives the fresh snapshot after every mutation.
type Observer func(Snapshot)

// Store owns the authoritative cart line items for one shopping session.
// It is an explicit owned object: one instance per session, handed by
// reference to every call site. Mutations are synchronous and the session
// executes single-threaded, so the store carries no lock of its own.
type Store struct {
	pricingCfg config.PricingConfig
	items      []Item
	discount   *AppliedDiscount
	observers  []Observer
}

// NewStore builds an empty cart store priced under the given policy.
func NewStore(pricingCfg config.PricingConfig) *Store {
	return &Store{pricingCfg: pricingCfg}
}

// Subscribe registers an observer notified after every mutation.
func (s *Store) Subscribe(fn Observer) {
	if fn == nil {
		return
	}
	s.observers = append(s.observers, fn)
}

// AddItem merges the quantity into an existing (productID, size) line or
// appends a new one. The stock ceiling is enforced here as a hard invariant:
// the store never records a quantity the snapshot cannot fulfil.
func (s *Store) AddItem(product catalog.Product, selectedSize string, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeRejected, "quantity must be positive")
	}

	existing := 0
	if line := s.find(product.ID, selectedSize); line != nil {
		existing = line.Quantity
	}
	if err := checkCeiling(product, selectedSize, existing+quantity); err != nil {
		return err
	}

	if line := s.find(product.ID, selectedSize); line != nil {
		line.Quantity += quantity
	} else {
		s.items = append(s.items, Item{
			ProductID:    product.ID,
			Product:      product,
			SelectedSize: selectedSize,
			Quantity:     quantity,
		})
	}
	s.notify()
	return nil
}

// UpdateQuantity sets the quantity on the matching line. A missing line is a
// no-op. Quantities below one are rejected rather than treated as removal;
// removal is the caller's decision, routed through DecrementQuantity or
// RemoveItem.
func (s *Store) UpdateQuantity(productID uuid.UUID, selectedSize string, quantity int) error {
	line := s.find(productID, selectedSize)
	if line == nil {
		return nil
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeRejected, "quantity must be at least 1")
	}
	if err := checkCeiling(line.Product, selectedSize, quantity); err != nil {
		return err
	}
	line.Quantity = quantity
	s.notify()
	return nil
}

// IncrementQuantity raises the line quantity by one, rejecting the step that
// would exceed the stock ceiling.
func (s *Store) IncrementQuantity(productID uuid.UUID, selectedSize string) error {
	line := s.find(productID, selectedSize)
	if line == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if err := checkCeiling(line.Product, selectedSize, line.Quantity+1); err != nil {
		return err
	}
	line.Quantity++
	s.notify()
	return nil
}

// DecrementQuantity lowers the line quantity by one; at one it removes the
// line entirely, so a zero-quantity line is never persisted.
func (s *Store) DecrementQuantity(productID uuid.UUID, selectedSize string) error {
	line := s.find(productID, selectedSize)
	if line == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if line.Quantity <= 1 {
		s.remove(productID, selectedSize)
	} else {
		line.Quantity--
	}
	s.notify()
	return nil
}

// RemoveItem deletes the matching line; no-op when absent.
func (s *Store) RemoveItem(productID uuid.UUID, selectedSize string) {
	if s.remove(productID, selectedSize) {
		s.notify()
	}
}

// Clear empties all lines and drops any active discount.
func (s *Store) Clear() {
	s.items = nil
	s.discount = nil
	s.notify()
}

// ApplyDiscount records the resolved discount, replacing any prior one
// outright. Codes never stack.
func (s *Store) ApplyDiscount(code string, amount decimal.Decimal) {
	s.discount = &AppliedDiscount{Code: code, Amount: amount}
	s.notify()
}

// RemoveDiscount clears the active discount.
func (s *Store) RemoveDiscount() {
	if s.discount == nil {
		return
	}
	s.discount = nil
	s.notify()
}

// IsEmpty reports whether the cart holds no lines.
func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

// Discount returns a copy of the active discount, if any.
func (s *Store) Discount() *AppliedDiscount {
	if s.discount == nil {
		return nil
	}
	copied := *s.discount
	return &copied
}

// Snapshot derives the cart view priced under the standard shipping tier,
// the default before a method is chosen at checkout.
func (s *Store) Snapshot() Snapshot {
	return s.SnapshotFor(enums.ShippingStandard)
}

// SnapshotFor derives the cart view priced under the given shipping method.
// Totals are recomputed on every call; the store never caches them.
func (s *Store) SnapshotFor(method enums.ShippingMethod) Snapshot {
	lines := make([]pricing.Line, 0, len(s.items))
	for _, item := range s.items {
		lines = append(lines, pricing.Line{UnitPrice: item.UnitPrice(), Quantity: item.Quantity})
	}

	discountAmount := decimal.Zero
	if s.discount != nil {
		discountAmount = s.discount.Amount
	}

	items := make([]Item, len(s.items))
	copy(items, s.items)

	return Snapshot{
		Items:    items,
		Discount: s.Discount(),
		Totals:   pricing.ComputeTotals(lines, discountAmount, method, s.pricingCfg),
	}
}

func (s *Store) find(productID uuid.UUID, selectedSize string) *Item {
	for i := range s.items {
		if s.items[i].ProductID == productID && s.items[i].SelectedSize == selectedSize {
			return &s.items[i]
		}
	}
	return nil
}

func (s *Store) remove(productID uuid.UUID, selectedSize string) bool {
	for i := range s.items {
		if s.items[i].ProductID == productID && s.items[i].SelectedSize == selectedSize {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) notify() {
	if len(s.observers) == 0 {
		return
	}
	snapshot := s.Snapshot()
	for _, fn := range s.observers {
		fn(snapshot)
	}
}

func checkCeiling(product catalog.Product, selectedSize string, quantity int) error {
	ceiling := product.StockCeiling(selectedSize)
	if quantity > ceiling {
		return pkgerrors.New(pkgerrors.CodeRejected, fmt.Sprintf("only %d in stock", ceiling)).WithDetails(map[string]any{
			"productId": product.ID,
			"size":      selectedSize,
			"stock":     ceiling,
			"requested": quantity,
		})
	}
	return nil
}
