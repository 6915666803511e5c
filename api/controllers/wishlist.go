package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/attirely/storefront-backend/api/responses"
	"github.com/attirely/storefront-backend/api/validators"
	"github.com/attirely/storefront-backend/internal/wishlist"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/logger"
)

type wishlistView struct {
	ProductIDs []uuid.UUID `json:"productIds"`
}

// WishlistView lists the session's liked product IDs, newest first.
func WishlistView(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		ids, err := svc.List(r.Context(), session.ID())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		responses.WriteSuccess(w, wishlistView{ProductIDs: ids})
	}
}

type wishlistItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

// WishlistAdd likes a product.
func WishlistAdd(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload wishlistItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Add(r.Context(), session.ID(), payload.ProductID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "added"})
	}
}

// WishlistToggle flips the like state and reports the resulting state.
func WishlistToggle(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload wishlistItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		liked, err := svc.Toggle(r.Context(), session.ID(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"liked": liked})
	}
}

// WishlistRemove unlikes the product in the path.
func WishlistRemove(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		if err := svc.Remove(r.Context(), session.ID(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
