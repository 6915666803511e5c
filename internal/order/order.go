package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/attirely/storefront-backend/internal/cart"
	"github.com/attirely/storefront-backend/internal/pricing"
	"github.com/attirely/storefront-backend/pkg/enums"
	"github.com/attirely/storefront-backend/pkg/types"
)

// PaymentSummary is the masked payment record carried on an order. Raw card
// data never leaves the checkout session.
type PaymentSummary struct {
	Kind       enums.PaymentKind `json:"kind"`
	CardHolder string            `json:"cardHolder,omitempty"`
	CardLast4  string            `json:"cardLast4,omitempty"`
}

// Order is the immutable record assembled at submission time from the frozen
// cart snapshot and the checkout selections.
type Order struct {
	ID              uuid.UUID            `json:"id"`
	SessionID       string               `json:"sessionId"`
	Items           []cart.Item          `json:"items"`
	Totals          pricing.Totals       `json:"totals"`
	ShippingAddress types.Address        `json:"shippingAddress"`
	BillingAddress  types.Address        `json:"billingAddress"`
	ShippingMethod  enums.ShippingMethod `json:"shippingMethod"`
	DiscountCode    string               `json:"discountCode,omitempty"`
	Payment         PaymentSummary       `json:"payment"`
	PlacedAt        time.Time            `json:"placedAt"`
}

// Assemble freezes the snapshot into an order. The items slice is copied so
// later cart mutations cannot reach the submitted record.
func Assemble(sessionID string, snapshot cart.Snapshot, shipping, billing types.Address, method enums.ShippingMethod, payment PaymentSummary, placedAt time.Time) Order {
	items := make([]cart.Item, len(snapshot.Items))
	copy(items, snapshot.Items)

	discountCode := ""
	if snapshot.Discount != nil {
		discountCode = snapshot.Discount.Code
	}

	return Order{
		ID:              uuid.New(),
		SessionID:       sessionID,
		Items:           items,
		Totals:          snapshot.Totals,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		ShippingMethod:  method,
		DiscountCode:    discountCode,
		Payment:         payment,
		PlacedAt:        placedAt,
	}
}
