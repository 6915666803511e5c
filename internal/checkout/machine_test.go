package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/attirely/storefront-backend/internal/cart"
	"github.com/attirely/storefront-backend/internal/catalog"
	"github.com/attirely/storefront-backend/internal/order"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/attirely/storefront-backend/pkg/enums"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/types"
)

var testClock = func() time.Time {
	return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
}

func testCart(t *testing.T) *cart.Store {
	t.Helper()
	store := cart.NewStore(config.PricingConfig{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingStandard:      decimal.NewFromInt(10),
		ShippingExpress:       decimal.NewFromInt(25),
		ShippingOvernight:     decimal.NewFromInt(40),
	})
	product := catalog.Product{ID: uuid.New(), Name: "Tee", Price: decimal.NewFromInt(100), Stock: 10}
	if err := store.AddItem(product, "", 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return store
}

func validAddress() types.Address {
	return types.Address{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Street:    "1 Analytical Way",
		City:      "Austin",
		State:     "TX",
		ZipCode:   "78701",
		Phone:     "512-555-0100",
		Country:   "US",
	}
}

func validCard() PaymentSelection {
	return PaymentSelection{
		Kind:           enums.PaymentKindCard,
		SameAsShipping: true,
		Card: &CardDetails{
			HolderName: "Ada Lovelace",
			Number:     "4242 4242 4242 4242",
			Expiry:     "12/27",
			CVV:        "123",
		},
	}
}

func newTestMachine(t *testing.T, store *cart.Store, submitter order.Submitter) *Machine {
	t.Helper()
	if submitter == nil {
		submitter = order.Simulated{}
	}
	m, err := NewMachine("sess-1", store, submitter, config.CheckoutConfig{SubmitTimeout: time.Second}, WithClock(testClock))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m
}

func TestNewMachineRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	store := cart.NewStore(config.PricingConfig{})
	_, err := NewMachine("sess-1", store, order.Simulated{}, config.CheckoutConfig{})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	details, ok := pkgerrors.DetailsOf(err).(map[string]any)
	if !ok || details[RedirectDetailKey] != RedirectCart {
		t.Fatalf("expected cart redirect intent, got %v", pkgerrors.DetailsOf(err))
	}
}

func TestHappyPathThroughSubmission(t *testing.T) {
	t.Parallel()

	store := testCart(t)
	m := newTestMachine(t, store, nil)

	if err := m.SetShipping(validAddress(), enums.ShippingExpress); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if m.Step() != enums.StepPayment {
		t.Fatalf("expected payment step, got %s", m.Step())
	}
	if err := m.SetPayment(validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if m.Step() != enums.StepReview {
		t.Fatalf("expected review step, got %s", m.Step())
	}

	confirmation, err := m.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if confirmation.Redirect != RedirectSuccess {
		t.Fatalf("expected success redirect, got %q", confirmation.Redirect)
	}
	if confirmation.Receipt.Reference == "" {
		t.Fatal("expected a receipt reference")
	}
	if confirmation.Order.Payment.CardLast4 != "4242" {
		t.Fatalf("expected masked card, got %+v", confirmation.Order.Payment)
	}
	if m.Step() != enums.StepSubmitted {
		t.Fatalf("expected submitted step, got %s", m.Step())
	}
	if !store.IsEmpty() {
		t.Fatal("cart must be cleared after a successful submission")
	}

	// totals were frozen before the clear
	if !confirmation.Order.Totals.Subtotal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected frozen subtotal 200, got %s", confirmation.Order.Totals.Subtotal)
	}
	if !confirmation.Order.Totals.Shipping.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected express shipping 25, got %s", confirmation.Order.Totals.Shipping)
	}
}

func TestSetShippingRejectsInvalidAddress(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, testCart(t), nil)
	address := validAddress()
	address.ZipCode = "787"
	address.City = ""

	err := m.SetShipping(address, enums.ShippingStandard)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.DetailsOf(err).(map[string]string)
	if !ok {
		t.Fatalf("expected field map details, got %T", pkgerrors.DetailsOf(err))
	}
	if details["zipCode"] == "" || details["city"] == "" {
		t.Fatalf("expected per-field messages, got %v", details)
	}
	if m.Step() != enums.StepShipping {
		t.Fatalf("failed validation must not advance, step %s", m.Step())
	}
}

func TestSetPaymentRequiresShippingFirst(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, testCart(t), nil)
	err := m.SetPayment(validCard())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSetPaymentRequiresBillingResolution(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, testCart(t), nil)
	if err := m.SetShipping(validAddress(), enums.ShippingStandard); err != nil {
		t.Fatalf("shipping: %v", err)
	}

	selection := validCard()
	selection.SameAsShipping = false
	err := m.SetPayment(selection)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error without billing resolution, got %v", err)
	}
	if m.Step() != enums.StepPayment {
		t.Fatalf("failed validation must not advance, step %s", m.Step())
	}

	billing := validAddress()
	billing.Street = "2 Billing Road"
	selection.BillingAddress = &billing
	if err := m.SetPayment(selection); err != nil {
		t.Fatalf("explicit billing address must pass: %v", err)
	}
	if state := m.State(); state.BillingAddress == nil || state.BillingAddress.Street != "2 Billing Road" {
		t.Fatalf("expected recorded billing address, got %+v", state.BillingAddress)
	}

	confirmation, err := m.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if confirmation.Order.BillingAddress.Street != "2 Billing Road" {
		t.Fatalf("expected billing address on order, got %+v", confirmation.Order.BillingAddress)
	}
}

func TestCardValidationDeferredToSubmit(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, testCart(t), nil)
	if err := m.SetShipping(validAddress(), enums.ShippingStandard); err != nil {
		t.Fatalf("shipping: %v", err)
	}

	// the payment step records the card as entered
	selection := validCard()
	selection.Card.Expiry = "02/26" // clock fixed at 2026-03-15
	if err := m.SetPayment(selection); err != nil {
		t.Fatalf("payment step must not validate the card: %v", err)
	}
	if m.Step() != enums.StepReview {
		t.Fatalf("expected review step, got %s", m.Step())
	}

	_, err := m.Submit(context.Background())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error at submit, got %v", err)
	}
	if m.Step() != enums.StepReview {
		t.Fatalf("failed card validation must stay at review, got %s", m.Step())
	}

	// expiring this month is still valid
	selection.Card.Expiry = "03/26"
	if err := m.SetPayment(selection); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := m.Submit(context.Background()); err != nil {
		t.Fatalf("same-month expiry must pass: %v", err)
	}
}

func TestBackEditKeepsLaterSelections(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, testCart(t), nil)
	if err := m.SetShipping(validAddress(), enums.ShippingStandard); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SetPayment(validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}

	if err := m.Back(enums.StepShipping); err != nil {
		t.Fatalf("back: %v", err)
	}
	if m.Step() != enums.StepShipping {
		t.Fatalf("expected shipping step, got %s", m.Step())
	}
	if err := m.Back(enums.StepReview); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("forward jump must be rejected, got %v", err)
	}

	// re-submitting shipping walks forward again with payment still on file
	if err := m.SetShipping(validAddress(), enums.ShippingOvernight); err != nil {
		t.Fatalf("re-shipping: %v", err)
	}
	if state := m.State(); state.Payment == nil {
		t.Fatal("payment selection must survive a shipping edit")
	}
	if err := m.SetPayment(validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := m.Submit(context.Background()); err != nil {
		t.Fatalf("submit after edit: %v", err)
	}
}

func TestSubmitOnlyFromReview(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, testCart(t), nil)
	if _, err := m.Submit(context.Background()); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict at shipping step, got %v", err)
	}
}

func TestSubmitReentrancyGuard(t *testing.T) {
	t.Parallel()

	store := testCart(t)
	var m *Machine
	var nested error
	submitter := order.SubmitterFunc(func(ctx context.Context, o order.Order) (order.Receipt, error) {
		_, nested = m.Submit(ctx)
		return order.Receipt{Reference: "ORD-TEST", SubmittedAt: testClock()}, nil
	})
	m = newTestMachine(t, store, submitter)

	if err := m.SetShipping(validAddress(), enums.ShippingStandard); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SetPayment(validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := m.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if pkgerrors.CodeOf(nested) != pkgerrors.CodeStateConflict {
		t.Fatalf("overlapping submit must be rejected, got %v", nested)
	}
}

func TestSubmitFailureKeepsCartAndReview(t *testing.T) {
	t.Parallel()

	store := testCart(t)
	declined := errors.New("processor declined")
	m := newTestMachine(t, store, order.SubmitterFunc(func(context.Context, order.Order) (order.Receipt, error) {
		return order.Receipt{}, declined
	}))

	if err := m.SetShipping(validAddress(), enums.ShippingStandard); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SetPayment(validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}

	_, err := m.Submit(context.Background())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeRejected {
		t.Fatalf("expected rejection, got %v", err)
	}
	if store.IsEmpty() {
		t.Fatal("failed submission must not clear the cart")
	}
	if m.Step() != enums.StepReview {
		t.Fatalf("failed submission must stay at review, got %s", m.Step())
	}

	// the retry succeeds on a healthy submitter path
	m2 := newTestMachine(t, store, nil)
	if err := m2.SetShipping(validAddress(), enums.ShippingStandard); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m2.SetPayment(validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := m2.Submit(context.Background()); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
}

func TestCartDrainedMidCheckoutTearsDown(t *testing.T) {
	t.Parallel()

	store := testCart(t)
	m := newTestMachine(t, store, nil)
	if err := m.SetShipping(validAddress(), enums.ShippingStandard); err != nil {
		t.Fatalf("shipping: %v", err)
	}

	store.Clear()

	err := m.SetPayment(validCard())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected teardown conflict, got %v", err)
	}
	if pkgerrors.DetailsOf(err).(map[string]any)[RedirectDetailKey] != RedirectCart {
		t.Fatalf("expected cart redirect intent, got %v", pkgerrors.DetailsOf(err))
	}
}

func TestOperationsAfterSubmissionAreRejected(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, testCart(t), nil)
	if err := m.SetShipping(validAddress(), enums.ShippingStandard); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SetPayment(validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := m.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := m.SetShipping(validAddress(), enums.ShippingStandard); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected conflict after submission, got %v", err)
	}
	if _, err := m.Submit(context.Background()); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected conflict on double submit, got %v", err)
	}
	if _, ok := m.Confirmation(); !ok {
		t.Fatal("expected confirmation to remain readable")
	}
}
