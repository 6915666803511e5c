package checkout

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/attirely/storefront-backend/pkg/enums"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/types"
)

var (
	zipPattern    = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	digitsPattern = regexp.MustCompile(`\D`)
)

// RegisterValidations installs the storefront's custom field rules on a
// validator instance. The API decode layer shares these with the session
// engine so both reject the same inputs.
func RegisterValidations(v *validator.Validate) {
	v.RegisterValidation("us_zip", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		digits := digitsPattern.ReplaceAllString(fl.Field().String(), "")
		return len(digits) >= 10 && len(digits) <= 15
	})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	RegisterValidations(v)
	return v
}

// ValidateAddress checks the shipping destination field by field. The
// returned error carries a field-to-message map so every problem surfaces in
// one round trip.
func ValidateAddress(address types.Address) error {
	return validateAddress(address, "invalid shipping address")
}

// ValidateBillingAddress applies the same field rules to a billing address.
func ValidateBillingAddress(address types.Address) error {
	return validateAddress(address, "invalid billing address")
}

func validateAddress(address types.Address, msg string) error {
	err := validate.Struct(address)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg)
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = addressMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}

func addressMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "us_zip":
		return "must be a ZIP code like 12345 or 12345-6789"
	case "phone":
		return "must be a valid phone number"
	}
	return "is invalid"
}

// CardDetails is the raw card entry from the payment step. It lives only in
// session memory and is reduced to a masked summary at assembly time.
type CardDetails struct {
	HolderName string `json:"holderName"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// Last4 returns the trailing digits of the card number for masking.
func (c CardDetails) Last4() string {
	digits := digitsPattern.ReplaceAllString(c.Number, "")
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// PaymentSelection is the payment step's input: the chosen method, the
// billing resolution and the card entry when the method needs one. The card
// is recorded at the payment step but only validated at submission.
type PaymentSelection struct {
	Kind           enums.PaymentKind `json:"kind"`
	SameAsShipping bool              `json:"sameAsShipping"`
	BillingAddress *types.Address    `json:"billingAddress,omitempty"`
	Card           *CardDetails      `json:"card,omitempty"`
}

// ValidatePaymentStep checks what the payment step requires: a known method
// and a billing resolution. Card fields are deferred to ValidateCard.
func ValidatePaymentStep(selection PaymentSelection) error {
	if !selection.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").WithDetails(map[string]string{
			"kind": "must be one of card, paypal",
		})
	}
	if selection.SameAsShipping {
		return nil
	}
	if selection.BillingAddress == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "billing address required").WithDetails(map[string]string{
			"billingAddress": "is required unless sameAsShipping is set",
		})
	}
	return ValidateBillingAddress(selection.BillingAddress.Normalized())
}

// ValidateCard checks the card entry against the reference time. Expiry is
// compared at month granularity: a card expiring this month is still valid.
func ValidateCard(card *CardDetails, now time.Time) error {
	if card == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment details").WithDetails(map[string]string{
			"card": "is required",
		})
	}
	details := map[string]string{}

	if strings.TrimSpace(card.HolderName) == "" {
		details["holderName"] = "is required"
	}
	if digits := digitsPattern.ReplaceAllString(card.Number, ""); len(digits) != 16 {
		details["number"] = "must be 16 digits"
	}
	if msg := expiryMessage(card.Expiry, now); msg != "" {
		details["expiry"] = msg
	}
	if digits := digitsPattern.ReplaceAllString(card.CVV, ""); len(digits) < 3 || len(digits) > 4 || digits != strings.TrimSpace(card.CVV) {
		details["cvv"] = "must be 3 or 4 digits"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment details").WithDetails(details)
	}
	return nil
}

func expiryMessage(expiry string, now time.Time) string {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return "must be in MM/YY format"
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return "must be in MM/YY format"
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 0 {
		return "must be in MM/YY format"
	}
	expiresEnd := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(expiresEnd) {
		return "card has expired"
	}
	return ""
}
