package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SizeOption carries per-size pricing and stock. When a product has size
// options, the matching entry overrides the product-level price and stock
// for that cart line.
type SizeOption struct {
	Size  string          `json:"size"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// Product is a read-only catalog snapshot. Cart lines copy it at add time
// and never re-fetch, so a later catalog change cannot alter a line in place.
type Product struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discount"`
	Stock           int             `json:"stock"`
	Sizes           []SizeOption    `json:"sizes,omitempty"`
}

// SizeOption returns the size entry matching the selected size, if any.
func (p Product) SizeOption(size string) (SizeOption, bool) {
	if size == "" {
		return SizeOption{}, false
	}
	for _, option := range p.Sizes {
		if option.Size == size {
			return option, true
		}
	}
	return SizeOption{}, false
}

// StockCeiling returns the stock limit applying to a line with the selected
// size: the size entry's stock when one matches, the product stock otherwise.
func (p Product) StockCeiling(size string) int {
	if option, ok := p.SizeOption(size); ok {
		return option.Stock
	}
	return p.Stock
}
