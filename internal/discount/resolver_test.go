package discount

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveKnownCode(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(DefaultRules()...)
	result := resolver.Resolve("SAVE10", decimal.NewFromInt(200))

	if !result.Accepted {
		t.Fatalf("expected SAVE10 to be accepted: %+v", result)
	}
	if !result.Amount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected amount 20, got %s", result.Amount)
	}
	if result.Code != "SAVE10" {
		t.Fatalf("unexpected code %q", result.Code)
	}
}

func TestResolveNormalizesInput(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(DefaultRules()...)
	result := resolver.Resolve("  save20 ", decimal.NewFromInt(50))

	if !result.Accepted {
		t.Fatalf("expected lower-case padded code to resolve: %+v", result)
	}
	if result.Code != "SAVE20" {
		t.Fatalf("expected normalized code, got %q", result.Code)
	}
	if !result.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected amount 10, got %s", result.Amount)
	}
}

func TestResolveUnknownCodeIsRejectionNotError(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(DefaultRules()...)
	result := resolver.Resolve("NOPE99", decimal.NewFromInt(200))

	if result.Accepted {
		t.Fatal("unknown code must be rejected")
	}
	if result.Reason != ReasonInvalidCode {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if !result.Amount.Equal(decimal.Zero) {
		t.Fatalf("rejected result must carry no amount, got %s", result.Amount)
	}
}

func TestResolveZeroSubtotal(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(DefaultRules()...)
	result := resolver.Resolve("WELCOME15", decimal.Zero)

	if !result.Accepted {
		t.Fatalf("expected acceptance: %+v", result)
	}
	if !result.Amount.Equal(decimal.Zero) {
		t.Fatalf("expected zero amount on zero subtotal, got %s", result.Amount)
	}
}
