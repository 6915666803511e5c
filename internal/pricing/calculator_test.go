package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/attirely/storefront-backend/internal/catalog"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/attirely/storefront-backend/pkg/enums"
)

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingStandard:      decimal.NewFromInt(10),
		ShippingExpress:       decimal.NewFromInt(25),
		ShippingOvernight:     decimal.NewFromInt(40),
	}
}

func TestEffectiveUnitPricePrefersSizeEntry(t *testing.T) {
	t.Parallel()

	product := catalog.Product{
		Price: decimal.NewFromInt(50),
		Sizes: []catalog.SizeOption{
			{Size: "M", Price: decimal.NewFromInt(55), Stock: 5},
		},
	}

	if got := EffectiveUnitPrice(product, "M"); !got.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("expected size price 55, got %s", got)
	}
	if got := EffectiveUnitPrice(product, "XL"); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected product price 50 for unmatched size, got %s", got)
	}
}

func TestEffectiveUnitPriceAppliesPercentageDiscount(t *testing.T) {
	t.Parallel()

	product := catalog.Product{
		Price:           decimal.RequireFromString("149.00"),
		DiscountPercent: 20,
	}

	want := decimal.RequireFromString("119.20")
	if got := EffectiveUnitPrice(product, ""); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestComputeTotalsFreeShippingOverThreshold(t *testing.T) {
	t.Parallel()

	// one line {price: 100, qty: 2}, standard shipping, no discount
	lines := []Line{{UnitPrice: decimal.NewFromInt(100), Quantity: 2}}
	totals := ComputeTotals(lines, decimal.Zero, enums.ShippingStandard, testPricingConfig())

	if totals.TotalItems != 2 {
		t.Fatalf("expected 2 items, got %d", totals.TotalItems)
	}
	if !totals.Subtotal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected subtotal 200, got %s", totals.Subtotal)
	}
	if !totals.Shipping.Equal(decimal.Zero) {
		t.Fatalf("expected free shipping, got %s", totals.Shipping)
	}
	if !totals.Tax.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("expected tax 16, got %s", totals.Tax)
	}
	if !totals.Total.Equal(decimal.NewFromInt(216)) {
		t.Fatalf("expected total 216, got %s", totals.Total)
	}
}

func TestComputeTotalsTaxOnPreDiscountSubtotal(t *testing.T) {
	t.Parallel()

	// SAVE10 against subtotal 200: discount 20, tax still on 200
	lines := []Line{{UnitPrice: decimal.NewFromInt(100), Quantity: 2}}
	totals := ComputeTotals(lines, decimal.NewFromInt(20), enums.ShippingStandard, testPricingConfig())

	if !totals.Discount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected discount 20, got %s", totals.Discount)
	}
	if !totals.Tax.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("tax must be computed on pre-discount subtotal, got %s", totals.Tax)
	}
	if !totals.Total.Equal(decimal.NewFromInt(196)) {
		t.Fatalf("expected total 196, got %s", totals.Total)
	}
}

func TestComputeTotalsShippingTiers(t *testing.T) {
	t.Parallel()

	cfg := testPricingConfig()
	lines := []Line{{UnitPrice: decimal.NewFromInt(30), Quantity: 1}}

	cases := []struct {
		method enums.ShippingMethod
		want   decimal.Decimal
	}{
		{enums.ShippingStandard, decimal.NewFromInt(10)},
		{enums.ShippingExpress, decimal.NewFromInt(25)},
		{enums.ShippingOvernight, decimal.NewFromInt(40)},
	}
	for _, tc := range cases {
		if got := ComputeTotals(lines, decimal.Zero, tc.method, cfg).Shipping; !got.Equal(tc.want) {
			t.Fatalf("method %s: expected shipping %s, got %s", tc.method, tc.want, got)
		}
	}

	// threshold applies only to the standard tier
	big := []Line{{UnitPrice: decimal.NewFromInt(150), Quantity: 1}}
	if got := ComputeTotals(big, decimal.Zero, enums.ShippingExpress, cfg).Shipping; !got.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("express must not be free over threshold, got %s", got)
	}
}

func TestComputeTotalsClampsDiscountAndTotal(t *testing.T) {
	t.Parallel()

	lines := []Line{{UnitPrice: decimal.NewFromInt(10), Quantity: 1}}
	totals := ComputeTotals(lines, decimal.NewFromInt(500), enums.ShippingStandard, testPricingConfig())

	if !totals.Discount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("discount must be clamped to subtotal, got %s", totals.Discount)
	}
	if totals.Total.IsNegative() {
		t.Fatalf("total must never go negative, got %s", totals.Total)
	}
	// total = 10 - 10 + 10 shipping + 0.8 tax
	if !totals.Total.Equal(decimal.RequireFromString("10.8")) {
		t.Fatalf("expected total 10.8, got %s", totals.Total)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	t.Parallel()

	totals := ComputeTotals(nil, decimal.Zero, enums.ShippingStandard, testPricingConfig())
	if totals.TotalItems != 0 || !totals.Total.Equal(decimal.NewFromInt(10)) {
		// empty carts still price the standard fee; the checkout guard keeps
		// them from ever reaching submission
		t.Fatalf("unexpected empty totals: %+v", totals)
	}
}

func TestComputeTotalsKeepsFullPrecision(t *testing.T) {
	t.Parallel()

	// 33.33 with a 15% product discount yields a repeating intermediate;
	// the pipeline must not round mid-calculation
	product := catalog.Product{Price: decimal.RequireFromString("33.33"), DiscountPercent: 15}
	unit := EffectiveUnitPrice(product, "")
	lines := []Line{{UnitPrice: unit, Quantity: 3}}
	totals := ComputeTotals(lines, decimal.Zero, enums.ShippingStandard, testPricingConfig())

	want := decimal.RequireFromString("33.33").
		Mul(decimal.RequireFromString("0.85")).
		Mul(decimal.NewFromInt(3))
	if !totals.Subtotal.Equal(want) {
		t.Fatalf("expected full-precision subtotal %s, got %s", want, totals.Subtotal)
	}
}
