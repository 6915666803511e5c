package controllers

import (
	"net/http"

	"github.com/attirely/storefront-backend/api/responses"
	"github.com/attirely/storefront-backend/api/validators"
	"github.com/attirely/storefront-backend/internal/checkout"
	"github.com/attirely/storefront-backend/internal/order"
	"github.com/attirely/storefront-backend/internal/sessions"
	"github.com/attirely/storefront-backend/pkg/enums"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/logger"
	"github.com/attirely/storefront-backend/pkg/types"
)

type checkoutStateView struct {
	Step            string                `json:"step"`
	ShippingAddress *types.Address        `json:"shippingAddress,omitempty"`
	ShippingMethod  string                `json:"shippingMethod"`
	BillingAddress  *types.Address        `json:"billingAddress,omitempty"`
	SameAsShipping  bool                  `json:"sameAsShipping"`
	Payment         *order.PaymentSummary `json:"payment,omitempty"`
	Processing      bool                  `json:"processing"`
	Cart            cartViewDTO           `json:"cart"`
}

func newCheckoutStateView(state checkout.State) checkoutStateView {
	return checkoutStateView{
		Step:            state.Step.String(),
		ShippingAddress: state.ShippingAddress,
		ShippingMethod:  state.ShippingMethod.String(),
		BillingAddress:  state.BillingAddress,
		SameAsShipping:  state.SameAsShipping,
		Payment:         state.Payment,
		Processing:      state.Processing,
		Cart:            newCartView(state.Cart),
	}
}

type confirmationView struct {
	OrderID      string         `json:"orderId"`
	Reference    string         `json:"reference"`
	PlacedAt     string         `json:"placedAt"`
	Items        []cartLineView `json:"items"`
	Totals       totalsView     `json:"totals"`
	DiscountCode string         `json:"discountCode,omitempty"`
}

func newConfirmationView(c checkout.Confirmation) confirmationView {
	lines := make([]cartLineView, 0, len(c.Order.Items))
	for _, item := range c.Order.Items {
		unit := item.UnitPrice()
		lines = append(lines, cartLineView{
			ProductID: item.ProductID.String(),
			Name:      item.Product.Name,
			Brand:     item.Product.Brand,
			Size:      item.SelectedSize,
			Quantity:  item.Quantity,
			UnitPrice: money(unit),
		})
	}
	return confirmationView{
		OrderID:      c.Order.ID.String(),
		Reference:    c.Receipt.Reference,
		PlacedAt:     c.Order.PlacedAt.Format("2006-01-02T15:04:05Z07:00"),
		Items:        lines,
		Totals:       newTotalsView(c.Order.Totals),
		DiscountCode: c.Order.DiscountCode,
	}
}

// CheckoutBegin enters (or resumes) checkout for the session.
func CheckoutBegin(mgr *sessions.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var state checkout.State
		err := session.Do(func() error {
			machine, err := mgr.BeginCheckout(session)
			if err != nil {
				return err
			}
			state = machine.State()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutStateView(state))
	}
}

// CheckoutState reports the current step and selections.
func CheckoutState(mgr *sessions.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var state checkout.State
		err := session.Do(func() error {
			machine, err := mgr.ActiveCheckout(session)
			if err != nil {
				return err
			}
			state = machine.State()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutStateView(state))
	}
}

type shippingRequest struct {
	Address types.Address `json:"address" validate:"required"`
	Method  string        `json:"method" validate:"required"`
}

// CheckoutShipping records the destination and shipping method.
func CheckoutShipping(mgr *sessions.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload shippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParseShippingMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method"))
			return
		}

		var state checkout.State
		err = session.Do(func() error {
			machine, err := mgr.ActiveCheckout(session)
			if err != nil {
				return err
			}
			if err := machine.SetShipping(payload.Address, method); err != nil {
				return err
			}
			state = machine.State()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutStateView(state))
	}
}

type paymentRequest struct {
	Kind           string                `json:"kind" validate:"required"`
	SameAsShipping bool                  `json:"sameAsShipping"`
	BillingAddress *types.Address        `json:"billingAddress,omitempty"`
	Card           *checkout.CardDetails `json:"card,omitempty"`
}

// CheckoutPayment records the payment selection and billing resolution.
func CheckoutPayment(mgr *sessions.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var state checkout.State
		err := session.Do(func() error {
			machine, err := mgr.ActiveCheckout(session)
			if err != nil {
				return err
			}
			selection := checkout.PaymentSelection{
				Kind:           enums.PaymentKind(payload.Kind),
				SameAsShipping: payload.SameAsShipping,
				BillingAddress: payload.BillingAddress,
				Card:           payload.Card,
			}
			if err := machine.SetPayment(selection); err != nil {
				return err
			}
			state = machine.State()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutStateView(state))
	}
}

type backRequest struct {
	Step string `json:"step" validate:"required"`
}

// CheckoutBack steps back to an earlier step for editing.
func CheckoutBack(mgr *sessions.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload backRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		step, err := enums.ParseCheckoutStep(payload.Step)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout step"))
			return
		}

		var state checkout.State
		err = session.Do(func() error {
			machine, err := mgr.ActiveCheckout(session)
			if err != nil {
				return err
			}
			if err := machine.Back(step); err != nil {
				return err
			}
			state = machine.State()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutStateView(state))
	}
}

// CheckoutSubmit freezes the cart and places the order. The success payload
// carries the confirmation and the success-page navigation intent.
func CheckoutSubmit(mgr *sessions.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var confirmation checkout.Confirmation
		err := session.Do(func() error {
			machine, err := mgr.ActiveCheckout(session)
			if err != nil {
				return err
			}
			result, err := machine.Submit(r.Context())
			if err != nil {
				return err
			}
			confirmation = result
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithStep(r.Context(), "submitted")
			logg.Info(ctx, "order.submitted")
		}
		responses.WriteSuccessRedirect(w, newConfirmationView(confirmation), confirmation.Redirect)
	}
}

// CheckoutCancel abandons the in-flight checkout; the cart is untouched.
func CheckoutCancel(mgr *sessions.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		session.Do(func() error {
			mgr.EndCheckout(session)
			return nil
		})
		responses.WriteSuccessRedirect(w, map[string]string{"status": "cancelled"}, checkout.RedirectCart)
	}
}
