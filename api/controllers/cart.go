package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/attirely/storefront-backend/api/middleware"
	"github.com/attirely/storefront-backend/api/responses"
	"github.com/attirely/storefront-backend/api/validators"
	"github.com/attirely/storefront-backend/internal/cart"
	"github.com/attirely/storefront-backend/internal/catalog"
	"github.com/attirely/storefront-backend/internal/discount"
	"github.com/attirely/storefront-backend/internal/sessions"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/logger"
	"github.com/attirely/storefront-backend/pkg/metrics"
)

func sessionOrError(w http.ResponseWriter, r *http.Request, logg *logger.Logger) *sessions.Session {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session context missing"))
	}
	return session
}

// CartView returns the session's cart snapshot with freshly derived totals.
func CartView(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var snapshot cart.Snapshot
		session.Do(func() error {
			snapshot = session.Cart().Snapshot()
			return nil
		})
		responses.WriteSuccess(w, newCartView(snapshot))
	}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CartAddItem resolves the product snapshot and merges it into the cart.
func CartAddItem(cat catalog.Catalog, em *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := cat.Product(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var snapshot cart.Snapshot
		err = session.Do(func() error {
			if err := session.Cart().AddItem(product, payload.Size, payload.Quantity); err != nil {
				return err
			}
			snapshot = session.Cart().Snapshot()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		em.IncCartMutation("add")
		responses.WriteSuccess(w, newCartView(snapshot))
	}
}

type lineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
}

// CartUpdateQuantity sets the quantity on a line. A missing line leaves the
// cart untouched.
func CartUpdateQuantity(em *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var snapshot cart.Snapshot
		err := session.Do(func() error {
			if err := session.Cart().UpdateQuantity(payload.ProductID, payload.Size, payload.Quantity); err != nil {
				return err
			}
			snapshot = session.Cart().Snapshot()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		em.IncCartMutation("update")
		responses.WriteSuccess(w, newCartView(snapshot))
	}
}

// CartIncrement bumps a line by one, CartDecrement lowers it; a decrement at
// one removes the line.
func CartIncrement(em *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return cartStep(em, logg, "increment", func(s *cart.Store, id uuid.UUID, size string) error {
		return s.IncrementQuantity(id, size)
	})
}

func CartDecrement(em *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return cartStep(em, logg, "decrement", func(s *cart.Store, id uuid.UUID, size string) error {
		return s.DecrementQuantity(id, size)
	})
}

func cartStep(em *metrics.EngineMetrics, logg *logger.Logger, op string, apply func(*cart.Store, uuid.UUID, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var snapshot cart.Snapshot
		err := session.Do(func() error {
			if err := apply(session.Cart(), payload.ProductID, payload.Size); err != nil {
				return err
			}
			snapshot = session.Cart().Snapshot()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		em.IncCartMutation(op)
		responses.WriteSuccess(w, newCartView(snapshot))
	}
}

// CartRemoveItem deletes a line outright.
func CartRemoveItem(em *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var snapshot cart.Snapshot
		session.Do(func() error {
			session.Cart().RemoveItem(payload.ProductID, payload.Size)
			snapshot = session.Cart().Snapshot()
			return nil
		})

		em.IncCartMutation("remove")
		responses.WriteSuccess(w, newCartView(snapshot))
	}
}

// CartClear empties the cart and drops the active discount.
func CartClear(em *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var snapshot cart.Snapshot
		session.Do(func() error {
			session.Cart().Clear()
			snapshot = session.Cart().Snapshot()
			return nil
		})

		em.IncCartMutation("clear")
		responses.WriteSuccess(w, newCartView(snapshot))
	}
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

// CartApplyDiscount resolves the entered code against the current subtotal.
// A rejected code is an ordinary response, not an error: the cart stays as
// it was and the reason comes back in the payload.
func CartApplyDiscount(resolver *discount.Resolver, em *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var result discount.Result
		var snapshot cart.Snapshot
		session.Do(func() error {
			store := session.Cart()
			result = resolver.Resolve(payload.Code, store.Snapshot().Totals.Subtotal)
			if result.Accepted {
				store.ApplyDiscount(result.Code, result.Amount)
			}
			snapshot = store.Snapshot()
			return nil
		})

		if result.Accepted {
			em.IncCartMutation("discount_apply")
		}
		responses.WriteSuccess(w, newDiscountOutcome(result, snapshot))
	}
}

// CartRemoveDiscount drops the active discount.
func CartRemoveDiscount(em *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var snapshot cart.Snapshot
		session.Do(func() error {
			session.Cart().RemoveDiscount()
			snapshot = session.Cart().Snapshot()
			return nil
		})

		em.IncCartMutation("discount_remove")
		responses.WriteSuccess(w, newCartView(snapshot))
	}
}
