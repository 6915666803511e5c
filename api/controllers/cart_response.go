package controllers

import (
	"github.com/shopspring/decimal"

	"github.com/attirely/storefront-backend/internal/cart"
	"github.com/attirely/storefront-backend/internal/discount"
	"github.com/attirely/storefront-backend/internal/pricing"
)

// Money values are held at full precision internally and rounded to two
// places only here, at the response boundary.
func money(value decimal.Decimal) string {
	return value.StringFixed(2)
}

type cartLineView struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Brand     string `json:"brand,omitempty"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

type discountViewDTO struct {
	Code   string `json:"code"`
	Amount string `json:"amount"`
}

type totalsView struct {
	TotalItems int    `json:"totalItems"`
	Subtotal   string `json:"subtotal"`
	Discount   string `json:"discount"`
	Shipping   string `json:"shipping"`
	Tax        string `json:"tax"`
	Total      string `json:"total"`
}

type cartViewDTO struct {
	Items    []cartLineView   `json:"items"`
	Discount *discountViewDTO `json:"discount,omitempty"`
	Totals   totalsView       `json:"totals"`
}

func newTotalsView(totals pricing.Totals) totalsView {
	return totalsView{
		TotalItems: totals.TotalItems,
		Subtotal:   money(totals.Subtotal),
		Discount:   money(totals.Discount),
		Shipping:   money(totals.Shipping),
		Tax:        money(totals.Tax),
		Total:      money(totals.Total),
	}
}

func newCartView(snapshot cart.Snapshot) cartViewDTO {
	items := make([]cartLineView, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		unit := item.UnitPrice()
		items = append(items, cartLineView{
			ProductID: item.ProductID.String(),
			Name:      item.Product.Name,
			Brand:     item.Product.Brand,
			Size:      item.SelectedSize,
			Quantity:  item.Quantity,
			UnitPrice: money(unit),
			LineTotal: money(unit.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		})
	}

	view := cartViewDTO{Items: items, Totals: newTotalsView(snapshot.Totals)}
	if snapshot.Discount != nil {
		view.Discount = &discountViewDTO{
			Code:   snapshot.Discount.Code,
			Amount: money(snapshot.Discount.Amount),
		}
	}
	return view
}

type discountOutcome struct {
	Accepted bool        `json:"accepted"`
	Code     string      `json:"code,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Cart     cartViewDTO `json:"cart"`
}

func newDiscountOutcome(result discount.Result, snapshot cart.Snapshot) discountOutcome {
	return discountOutcome{
		Accepted: result.Accepted,
		Code:     result.Code,
		Reason:   result.Reason,
		Cart:     newCartView(snapshot),
	}
}
