package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/attirely/storefront-backend/api/responses"
	"github.com/attirely/storefront-backend/internal/catalog"
	"github.com/attirely/storefront-backend/internal/pricing"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/logger"
)

// ProductLister is the catalog read surface the listing endpoint needs.
type ProductLister interface {
	catalog.Catalog
	List(ctx context.Context) []catalog.Product
}

type sizeView struct {
	Size  string `json:"size"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

type productView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Brand           string     `json:"brand,omitempty"`
	Price           string     `json:"price"`
	EffectivePrice  string     `json:"effectivePrice"`
	DiscountPercent int        `json:"discountPercent,omitempty"`
	Stock           int        `json:"stock"`
	Sizes           []sizeView `json:"sizes,omitempty"`
}

func newProductView(product catalog.Product) productView {
	view := productView{
		ID:              product.ID.String(),
		Name:            product.Name,
		Brand:           product.Brand,
		Price:           money(product.Price),
		EffectivePrice:  money(pricing.EffectiveUnitPrice(product, "")),
		DiscountPercent: product.DiscountPercent,
		Stock:           product.Stock,
	}
	for _, option := range product.Sizes {
		view.Sizes = append(view.Sizes, sizeView{
			Size:  option.Size,
			Price: money(option.Price),
			Stock: option.Stock,
		})
	}
	return view
}

// ProductsList returns the full assortment.
func ProductsList(cat ProductLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products := cat.List(r.Context())
		views := make([]productView, 0, len(products))
		for _, product := range products {
			views = append(views, newProductView(product))
		}
		responses.WriteSuccess(w, views)
	}
}

// ProductGet returns one product snapshot by ID.
func ProductGet(cat catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		product, err := cat.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(product))
	}
}
