package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/attirely/storefront-backend/internal/catalog"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/attirely/storefront-backend/pkg/enums"
)

// Line is one priced cart line: the effective unit price already resolved
// against the product snapshot, times a quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the derived money breakdown for a cart snapshot.
type Totals struct {
	TotalItems int
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
}

// EffectiveUnitPrice resolves the per-line unit price: the matching size
// entry's price when one exists, the product price otherwise, reduced by the
// product-level percentage discount. No rounding happens here; callers round
// at display time only.
func EffectiveUnitPrice(product catalog.Product, selectedSize string) decimal.Decimal {
	price := product.Price
	if option, ok := product.SizeOption(selectedSize); ok {
		price = option.Price
	}
	if product.DiscountPercent > 0 {
		factor := decimal.NewFromInt(100 - int64(product.DiscountPercent)).Div(decimal.NewFromInt(100))
		price = price.Mul(factor)
	}
	return price
}

// ComputeTotals derives the full money breakdown from priced lines, an
// already-resolved discount amount and the selected shipping method.
//
// Tax is computed on the subtotal BEFORE the discount is subtracted: the
// discount reduces the total but not the taxable base. That mirrors the
// storefront's established billing behavior and is a deliberate policy, not
// an ordering accident.
func ComputeTotals(lines []Line, discountAmount decimal.Decimal, method enums.ShippingMethod, cfg config.PricingConfig) Totals {
	var totals Totals

	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		totals.TotalItems += line.Quantity
		totals.Subtotal = totals.Subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	// discount can never exceed the subtotal
	totals.Discount = discountAmount
	if totals.Discount.IsNegative() {
		totals.Discount = decimal.Zero
	}
	if totals.Discount.GreaterThan(totals.Subtotal) {
		totals.Discount = totals.Subtotal
	}

	totals.Shipping = shippingFee(totals.Subtotal, method, cfg)
	totals.Tax = totals.Subtotal.Mul(cfg.TaxRate)

	totals.Total = totals.Subtotal.Sub(totals.Discount).Add(totals.Shipping).Add(totals.Tax)
	if totals.Total.IsNegative() {
		totals.Total = decimal.Zero
	}
	return totals
}

// shippingFee applies the flat tiered fees. The free-shipping threshold
// applies only to the standard tier.
func shippingFee(subtotal decimal.Decimal, method enums.ShippingMethod, cfg config.PricingConfig) decimal.Decimal {
	if !method.IsValid() {
		method = enums.ShippingStandard
	}
	switch method {
	case enums.ShippingExpress:
		return cfg.ShippingExpress
	case enums.ShippingOvernight:
		return cfg.ShippingOvernight
	default:
		if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
			return decimal.Zero
		}
		return cfg.ShippingStandard
	}
}
