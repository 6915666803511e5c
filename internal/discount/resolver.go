package discount

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ReasonInvalidCode is reported when the entered code matches no active rule.
const ReasonInvalidCode = "invalid_code"

// Result is the outcome of resolving a code against a cart subtotal. A
// rejection is an ordinary value, never an error: the cart stays usable.
type Result struct {
	Accepted bool
	Code     string
	Amount   decimal.Decimal
	Reason   string
}

// Rule maps a code to a percentage off the cart subtotal.
type Rule struct {
	Code       string
	PercentOff int
}

// Resolver validates user-entered discount codes against a static rule set.
type Resolver struct {
	rules map[string]Rule
}

// NewResolver builds a resolver for the provided rules. Codes are stored
// normalized upper-case.
func NewResolver(rules ...Rule) *Resolver {
	byCode := make(map[string]Rule, len(rules))
	for _, rule := range rules {
		byCode[Normalize(rule.Code)] = rule
	}
	return &Resolver{rules: byCode}
}

// DefaultRules is the storefront's active promotion table.
func DefaultRules() []Rule {
	return []Rule{
		{Code: "SAVE10", PercentOff: 10},
		{Code: "SAVE20", PercentOff: 20},
		{Code: "WELCOME15", PercentOff: 15},
	}
}

// Normalize trims and upper-cases a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve maps the code to an absolute discount amount against the given
// subtotal. Only one code is ever active; the caller replaces any prior one
// with the result.
func (r *Resolver) Resolve(code string, subtotal decimal.Decimal) Result {
	normalized := Normalize(code)
	rule, ok := r.rules[normalized]
	if !ok {
		return Result{Reason: ReasonInvalidCode}
	}

	amount := subtotal.Mul(decimal.NewFromInt(int64(rule.PercentOff))).Div(decimal.NewFromInt(100))
	return Result{
		Accepted: true,
		Code:     normalized,
		Amount:   amount,
	}
}
