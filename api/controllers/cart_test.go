package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/attirely/storefront-backend/api/middleware"
	"github.com/attirely/storefront-backend/internal/catalog"
	"github.com/attirely/storefront-backend/internal/discount"
	"github.com/attirely/storefront-backend/internal/order"
	"github.com/attirely/storefront-backend/internal/sessions"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/rs/zerolog"
)

func testManager(t *testing.T) *sessions.Manager {
	t.Helper()
	manager, err := sessions.NewManager(
		config.SessionConfig{TTL: time.Hour, SweepInterval: time.Hour},
		config.PricingConfig{
			TaxRate:               decimal.RequireFromString("0.08"),
			FreeShippingThreshold: decimal.NewFromInt(100),
			ShippingStandard:      decimal.NewFromInt(10),
			ShippingExpress:       decimal.NewFromInt(25),
			ShippingOvernight:     decimal.NewFromInt(40),
		},
		config.CheckoutConfig{SubmitTimeout: time.Second},
		order.Simulated{},
		nil,
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func sessionRequest(t *testing.T, manager *sessions.Manager, method, target string, body any) (*http.Request, *sessions.Session) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	_, session := manager.Resolve("test-session")
	return req.WithContext(middleware.WithSession(req.Context(), session)), session
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data     json.RawMessage `json:"data"`
		Redirect string          `json:"redirect"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestCartAddItemSuccess(t *testing.T) {
	manager := testManager(t)
	cat := catalog.NewMemory(catalog.Fixtures()...)
	product := catalog.Fixtures()[0]

	handler := CartAddItem(cat, nil, nil)
	req, _ := sessionRequest(t, manager, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": product.ID,
		"size":      "M",
		"quantity":  2,
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var view cartViewDTO
	decodeData(t, resp, &view)
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart view: %+v", view)
	}
	if view.Totals.Subtotal != "48.00" {
		t.Fatalf("expected display-rounded subtotal 48.00, got %s", view.Totals.Subtotal)
	}
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	manager := testManager(t)
	cat := catalog.NewMemory(catalog.Fixtures()...)

	handler := CartAddItem(cat, nil, nil)
	req, _ := sessionRequest(t, manager, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": uuid.New(),
		"quantity":  1,
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddItemOverStock(t *testing.T) {
	manager := testManager(t)
	cat := catalog.NewMemory(catalog.Fixtures()...)
	// the Trail Runner size 10 entry has only 2 in stock
	product := catalog.Fixtures()[2]

	handler := CartAddItem(cat, nil, nil)
	req, _ := sessionRequest(t, manager, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": product.ID,
		"size":      "10",
		"quantity":  3,
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCartAddItemRejectsUnknownFields(t *testing.T) {
	manager := testManager(t)
	cat := catalog.NewMemory(catalog.Fixtures()...)

	handler := CartAddItem(cat, nil, nil)
	req, _ := sessionRequest(t, manager, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": catalog.Fixtures()[0].ID,
		"quantity":  1,
		"bogus":     true,
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartApplyDiscountRejectionIsAValue(t *testing.T) {
	manager := testManager(t)
	resolver := discount.NewResolver(discount.DefaultRules()...)

	handler := CartApplyDiscount(resolver, nil, nil)
	req, _ := sessionRequest(t, manager, http.MethodPost, "/api/v1/cart/discount", map[string]any{
		"code": "BOGUS99",
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("rejection must not be an HTTP error, got %d", resp.Code)
	}

	var outcome discountOutcome
	decodeData(t, resp, &outcome)
	if outcome.Accepted {
		t.Fatal("expected rejection")
	}
	if outcome.Reason != discount.ReasonInvalidCode {
		t.Fatalf("unexpected reason %q", outcome.Reason)
	}
}

func TestCartApplyDiscountAcceptedUpdatesTotals(t *testing.T) {
	manager := testManager(t)
	cat := catalog.NewMemory(catalog.Fixtures()...)
	resolver := discount.NewResolver(discount.DefaultRules()...)
	product := catalog.Fixtures()[1] // 149.00 at 20% off -> 119.20

	addReq, session := sessionRequest(t, manager, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": product.ID,
		"quantity":  1,
	})
	addResp := httptest.NewRecorder()
	CartAddItem(cat, nil, nil).ServeHTTP(addResp, addReq)
	if addResp.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", addResp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/discount", bytes.NewBufferString(`{"code":"save10"}`))
	req = req.WithContext(middleware.WithSession(req.Context(), session))
	resp := httptest.NewRecorder()
	CartApplyDiscount(resolver, nil, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var outcome discountOutcome
	decodeData(t, resp, &outcome)
	if !outcome.Accepted || outcome.Code != "SAVE10" {
		t.Fatalf("expected normalized acceptance, got %+v", outcome)
	}
	if outcome.Cart.Discount == nil || outcome.Cart.Discount.Amount != "11.92" {
		t.Fatalf("expected discount 11.92 on subtotal 119.20, got %+v", outcome.Cart.Discount)
	}
}

func TestCartUpdateQuantityMissingLineIsSilent(t *testing.T) {
	manager := testManager(t)

	handler := CartUpdateQuantity(nil, nil)
	req, _ := sessionRequest(t, manager, http.MethodPatch, "/api/v1/cart/items", map[string]any{
		"productId": uuid.New(),
		"quantity":  3,
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("missing line must be a silent no-op, got %d", resp.Code)
	}
	var view cartViewDTO
	decodeData(t, resp, &view)
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Items)
	}
}

func TestCartClearDropsDiscount(t *testing.T) {
	manager := testManager(t)
	cat := catalog.NewMemory(catalog.Fixtures()...)
	resolver := discount.NewResolver(discount.DefaultRules()...)
	product := catalog.Fixtures()[0]

	addReq, session := sessionRequest(t, manager, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": product.ID,
		"quantity":  1,
	})
	CartAddItem(cat, nil, nil).ServeHTTP(httptest.NewRecorder(), addReq)

	discountReq := httptest.NewRequest(http.MethodPost, "/api/v1/cart/discount", bytes.NewBufferString(`{"code":"SAVE10"}`))
	discountReq = discountReq.WithContext(middleware.WithSession(discountReq.Context(), session))
	CartApplyDiscount(resolver, nil, nil).ServeHTTP(httptest.NewRecorder(), discountReq)

	clearReq := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	clearReq = clearReq.WithContext(middleware.WithSession(clearReq.Context(), session))
	resp := httptest.NewRecorder()
	CartClear(nil, nil).ServeHTTP(resp, clearReq)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view cartViewDTO
	decodeData(t, resp, &view)
	if len(view.Items) != 0 || view.Discount != nil {
		t.Fatalf("clear must drop items and discount, got %+v", view)
	}
}

func TestCartViewDerivesTotals(t *testing.T) {
	manager := testManager(t)
	cat := catalog.NewMemory(catalog.Fixtures()...)
	product := catalog.Fixtures()[0]

	for i := 0; i < 2; i++ {
		req, _ := sessionRequest(t, manager, http.MethodPost, "/api/v1/cart/items", map[string]any{
			"productId": product.ID,
			"size":      "L",
			"quantity":  1,
		})
		CartAddItem(cat, nil, nil).ServeHTTP(httptest.NewRecorder(), req)
	}

	req, _ := sessionRequest(t, manager, http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	CartView(nil).ServeHTTP(resp, req)

	var view cartViewDTO
	decodeData(t, resp, &view)
	if len(view.Items) != 1 {
		t.Fatalf("same product and size must merge, got %d lines", len(view.Items))
	}
	// 2 x 26.00 subtotal, standard shipping 10, tax 4.16
	if view.Totals.Total != fmt.Sprintf("%.2f", 52.0+10+4.16) {
		t.Fatalf("unexpected total %s", view.Totals.Total)
	}
}
