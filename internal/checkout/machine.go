package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/attirely/storefront-backend/internal/cart"
	"github.com/attirely/storefront-backend/internal/order"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/attirely/storefront-backend/pkg/enums"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/metrics"
	"github.com/attirely/storefront-backend/pkg/types"
)

// Navigation intents returned alongside responses. The server never
// redirects; clients decide how to honor these.
const (
	RedirectCart    = "/cart"
	RedirectSuccess = "/checkout/success"
)

// RedirectDetailKey is the error-details key carrying a navigation intent.
const RedirectDetailKey = "redirect"

// State is the read view of a checkout session.
type State struct {
	Step            enums.CheckoutStep    `json:"step"`
	ShippingAddress *types.Address        `json:"shippingAddress,omitempty"`
	ShippingMethod  enums.ShippingMethod  `json:"shippingMethod"`
	BillingAddress  *types.Address        `json:"billingAddress,omitempty"`
	SameAsShipping  bool                  `json:"sameAsShipping"`
	Payment         *order.PaymentSummary `json:"payment,omitempty"`
	Processing      bool                  `json:"processing"`
	Cart            cart.Snapshot         `json:"cart"`
}

// Confirmation is the outcome of a successful submission.
type Confirmation struct {
	Order    order.Order   `json:"order"`
	Receipt  order.Receipt `json:"receipt"`
	Redirect string        `json:"redirect"`
}

// Machine drives one checkout attempt through its steps. It holds a
// reference to the session's cart store and owns the step, the shipping and
// payment selections and the in-flight submission guard. Like the cart store
// it executes single-threaded within its session.
type Machine struct {
	sessionID string
	cart      *cart.Store
	submitter order.Submitter
	cfg       config.CheckoutConfig
	metrics   *metrics.EngineMetrics
	now       func() time.Time

	step             enums.CheckoutStep
	address          *types.Address
	method           enums.ShippingMethod
	payment          *PaymentSelection
	isProcessing     bool
	lastConfirmation *Confirmation
}

// Option configures optional machine collaborators.
type Option func(*Machine)

// WithClock overrides the reference time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithMetrics attaches the engine counters.
func WithMetrics(em *metrics.EngineMetrics) Option {
	return func(m *Machine) { m.metrics = em }
}

// NewMachine builds a checkout machine for the session. The cart must be
// non-empty to enter checkout; an empty cart yields a conflict carrying the
// cart redirect intent.
func NewMachine(sessionID string, cartStore *cart.Store, submitter order.Submitter, cfg config.CheckoutConfig, opts ...Option) (*Machine, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	if cartStore == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}

	m := &Machine{
		sessionID: sessionID,
		cart:      cartStore,
		submitter: submitter,
		cfg:       cfg,
		now:       time.Now,
		step:      enums.StepShipping,
		method:    enums.ShippingStandard,
	}
	for _, opt := range opts {
		opt(m)
	}

	if cartStore.IsEmpty() {
		return nil, emptyCartError()
	}
	return m, nil
}

// Step reports the current checkout step.
func (m *Machine) Step() enums.CheckoutStep {
	return m.step
}

// State returns the read view, totals priced under the selected shipping
// method.
func (m *Machine) State() State {
	state := State{
		Step:           m.step,
		ShippingMethod: m.method,
		Processing:     m.isProcessing,
		Cart:           m.cart.SnapshotFor(m.method),
	}
	if m.address != nil {
		copied := *m.address
		state.ShippingAddress = &copied
	}
	if m.payment != nil {
		summary := m.paymentSummary()
		state.Payment = &summary
		state.SameAsShipping = m.payment.SameAsShipping
		if m.payment.BillingAddress != nil {
			copied := *m.payment.BillingAddress
			state.BillingAddress = &copied
		}
	}
	return state
}

// Confirmation returns the submission outcome once the session reached the
// submitted step.
func (m *Machine) Confirmation() (*Confirmation, bool) {
	if m.lastConfirmation == nil {
		return nil, false
	}
	copied := *m.lastConfirmation
	return &copied, true
}

// SetShipping validates and records the destination and method, advancing to
// the payment step. Re-entering shipping from a later step is a back edit;
// the recorded payment selection survives it.
func (m *Machine) SetShipping(address types.Address, method enums.ShippingMethod) error {
	if err := m.EnsureActive(); err != nil {
		return err
	}
	if m.step == enums.StepSubmitted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already submitted")
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method").WithDetails(map[string]string{
			"shippingMethod": "must be one of standard, express, overnight",
		})
	}
	normalized := address.Normalized()
	if err := ValidateAddress(normalized); err != nil {
		return err
	}

	m.address = &normalized
	m.method = method
	m.step = enums.StepPayment
	return nil
}

// SetPayment records the payment method and billing resolution, advancing to
// the review step. Shipping must already be on file. Card fields are carried
// as entered; full card validation happens at submission.
func (m *Machine) SetPayment(selection PaymentSelection) error {
	if err := m.EnsureActive(); err != nil {
		return err
	}
	if m.step == enums.StepSubmitted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already submitted")
	}
	if m.address == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "shipping step not completed")
	}
	if err := ValidatePaymentStep(selection); err != nil {
		return err
	}

	if selection.SameAsShipping {
		selection.BillingAddress = nil
	} else {
		normalized := selection.BillingAddress.Normalized()
		selection.BillingAddress = &normalized
	}

	m.payment = &selection
	m.step = enums.StepReview
	return nil
}

// Back moves to an earlier step for editing. Forward jumps and leaving a
// submitted session are rejected.
func (m *Machine) Back(target enums.CheckoutStep) error {
	if err := m.EnsureActive(); err != nil {
		return err
	}
	if m.step == enums.StepSubmitted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already submitted")
	}
	if !target.IsValid() || target == enums.StepSubmitted {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout step")
	}
	if target.Ordinal() >= m.step.Ordinal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "can only step back to an earlier step")
	}
	m.step = target
	return nil
}

// Submit freezes the cart snapshot, assembles the order and hands it to the
// submitter. Only the review step may submit, and only one submission can be
// in flight. Full card validation happens here, not at the payment step. On
// failure the cart and the review state are left intact so the shopper can
// retry. On success the cart is cleared exactly once and the session moves
// to submitted.
func (m *Machine) Submit(ctx context.Context) (Confirmation, error) {
	if err := m.EnsureActive(); err != nil {
		return Confirmation{}, err
	}
	if m.isProcessing {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeStateConflict, "submission already in progress")
	}
	if m.step != enums.StepReview {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not at the review step")
	}
	if m.address == nil || m.payment == nil {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout steps incomplete")
	}
	if m.payment.Kind == enums.PaymentKindCard {
		if err := ValidateCard(m.payment.Card, m.now()); err != nil {
			return Confirmation{}, err
		}
	}

	m.isProcessing = true
	defer func() { m.isProcessing = false }()

	snapshot := m.cart.SnapshotFor(m.method)
	assembled := order.Assemble(m.sessionID, snapshot, *m.address, m.billingAddress(), m.method, m.paymentSummary(), m.now().UTC())

	submitCtx := ctx
	if m.cfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		submitCtx, cancel = context.WithTimeout(ctx, m.cfg.SubmitTimeout)
		defer cancel()
	}

	started := m.now()
	receipt, err := m.submitter.Submit(submitCtx, assembled)
	m.metrics.ObserveSubmitDuration(time.Since(started))
	if err != nil {
		m.metrics.IncOrderSubmitFailed()
		if pkgerrors.CodeOf(err) == pkgerrors.CodeInternal {
			return Confirmation{}, pkgerrors.Wrap(pkgerrors.CodeRejected, err, "order was not accepted")
		}
		return Confirmation{}, err
	}

	m.metrics.IncOrderSubmitted()
	m.cart.Clear()
	m.step = enums.StepSubmitted

	confirmation := Confirmation{
		Order:    assembled,
		Receipt:  receipt,
		Redirect: RedirectSuccess,
	}
	m.lastConfirmation = &confirmation
	return confirmation, nil
}

func (m *Machine) billingAddress() types.Address {
	if m.payment != nil && !m.payment.SameAsShipping && m.payment.BillingAddress != nil {
		return *m.payment.BillingAddress
	}
	return *m.address
}

func (m *Machine) paymentSummary() order.PaymentSummary {
	summary := order.PaymentSummary{Kind: m.payment.Kind}
	if m.payment.Kind == enums.PaymentKindCard && m.payment.Card != nil {
		summary.CardHolder = m.payment.Card.HolderName
		summary.CardLast4 = m.payment.Card.Last4()
	}
	return summary
}

// EnsureActive reports the teardown error when the cart drained underneath a
// non-submitted checkout. Callers owning the session lifecycle discard the
// machine when this fails.
func (m *Machine) EnsureActive() error {
	if m.step != enums.StepSubmitted && m.cart.IsEmpty() {
		return emptyCartError()
	}
	return nil
}

func emptyCartError() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty").WithDetails(map[string]any{
		RedirectDetailKey: RedirectCart,
	})
}
