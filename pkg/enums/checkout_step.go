package enums

import "fmt"

// CheckoutStep names one stage of the linear checkout flow.
type CheckoutStep string

const (
	StepShipping  CheckoutStep = "shipping"
	StepPayment   CheckoutStep = "payment"
	StepReview    CheckoutStep = "review"
	StepSubmitted CheckoutStep = "submitted"
)

var validCheckoutSteps = []CheckoutStep{
	StepShipping,
	StepPayment,
	StepReview,
	StepSubmitted,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// Ordinal returns the step's position in the flow, -1 for unknown values.
func (c CheckoutStep) Ordinal() int {
	for i, candidate := range validCheckoutSteps {
		if candidate == c {
			return i
		}
	}
	return -1
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
