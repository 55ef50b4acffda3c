package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"vigor/internal/service/checkout/application"
	"vigor/internal/service/checkout/domain"
	"vigor/internal/service/checkout/infrastructure"
	"vigor/internal/service/checkout/infrastructure/rule"
)

type approvePayments struct{}

func (approvePayments) Charge(ctx context.Context, orderID string, amount float64, methodID string) error {
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *infrastructure.MemoryStore) {
	t.Helper()
	store := infrastructure.NewMemoryStore()
	store.SeedCatalog(
		&domain.Product{ID: "bono", Name: "Bono 10", Category: "entrenamiento", BasePrice: 90, Active: true, IsVoucher: true, Sessions: 10},
		&domain.Product{ID: "camiseta", Name: "Camiseta", Category: "merchandising", BasePrice: 19.95, Active: true},
	)
	_ = store.Create(context.Background(), &domain.PromoCode{
		ID: "s", Code: "SUMMER10", Type: domain.DiscountPercentage, Value: 10, Active: true,
	})

	engine, err := rule.NewCELOfferEngine()
	if err != nil {
		t.Fatal(err)
	}
	tracer := otel.Tracer("test")
	cfg := domain.DefaultPricingConfig()

	carts := application.NewCartService(store, store, engine, cfg, tracer)
	promos := application.NewPromoService(store, store, tracer)
	checkout := application.NewCheckoutService(cfg, application.CheckoutDeps{
		Customers: store.CustomerRepo(),
		Subs:      store.SubscriptionRepo(),
		Vouchers:  store.VoucherRepo(),
		Referrals: store,
		Orders:    store.OrderRepo(),
		Payments:  approvePayments{},
		Promos:    promos,
	}, tracer)

	mux := http.NewServeMux()
	NewCheckoutHandler(carts, promos, checkout).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandlePriceCart(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/price_cart", application.PriceCartRequest{
		Lines:     []application.CartLineInput{{ProductID: "bono", Quantity: 1}},
		PromoCode: "summer10",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out application.PriceCartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Totals.Subtotal != 90 || out.Totals.PromoDiscount != 9 {
		t.Errorf("totals = %+v", out.Totals)
	}
	if len(out.Lines) != 1 || out.Lines[0].ProductName != "Bono 10" {
		t.Errorf("lines = %+v", out.Lines)
	}
}

func TestHandlePriceCartBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/price_cart", application.PriceCartRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty cart status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/price_cart", application.PriceCartRequest{
		Lines: []application.CartLineInput{{ProductID: "nope", Quantity: 1}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown product status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleValidatePromo(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("valid code", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/validate_promo", application.ValidatePromoRequest{
			Code:  "summer10",
			Lines: []application.CartLineInput{{ProductID: "bono", Quantity: 1}},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var out application.ValidatePromoResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		if !out.Valid || out.Code != "SUMMER10" || out.Discount != 9 {
			t.Errorf("response = %+v", out)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/validate_promo", application.ValidatePromoRequest{
			Code:  "NOPE",
			Lines: []application.CartLineInput{{ProductID: "bono", Quantity: 1}},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var out application.ValidatePromoResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		if out.Valid || out.Kind != string(domain.RejectionNotFound) || out.Message == "" {
			t.Errorf("response = %+v", out)
		}
	})
}

func checkoutRequest() application.CheckoutRequest {
	expiry := time.Now().AddDate(1, 0, 0)
	return application.CheckoutRequest{
		Lines:           []application.CartLineInput{{ProductID: "bono", Quantity: 1}},
		Name:            "Ana",
		Email:           "ana@example.com",
		Phone:           "600123123",
		PaymentMethodID: "tarjeta",
		TermsAccepted:   true,
		VoucherExpiry:   &expiry,
	}
}

func TestHandleCheckout(t *testing.T) {
	srv, store := newTestServer(t)

	req := checkoutRequest()
	req.PromoCode = "summer10"

	resp := postJSON(t, srv.URL+"/checkout", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out application.CheckoutResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.State != domain.StateSucceeded || out.OrderID == "" {
		t.Fatalf("result = %+v", out)
	}
	if out.Totals.PromoDiscount != 9 {
		t.Errorf("promo discount = %v, want 9", out.Totals.PromoDiscount)
	}

	if _, err := store.OrderRepo().FindByID(context.Background(), out.OrderID); err != nil {
		t.Errorf("order not persisted: %v", err)
	}
	if len(store.Vouchers()) != 1 {
		t.Errorf("vouchers = %d, want 1", len(store.Vouchers()))
	}
	uses, _ := store.TotalUses(context.Background(), "s")
	if uses != 1 {
		t.Errorf("promo uses = %d, want 1", uses)
	}
}

func TestHandleCheckoutGateFailure(t *testing.T) {
	srv, _ := newTestServer(t)

	req := checkoutRequest()
	req.TermsAccepted = false

	resp := postJSON(t, srv.URL+"/checkout", req)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var out application.CheckoutResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.State != domain.StateFailed || len(out.Issues) == 0 {
		t.Errorf("result = %+v", out)
	}
}

func TestHandleCheckoutRejectsBadPromo(t *testing.T) {
	srv, store := newTestServer(t)

	req := checkoutRequest()
	req.PromoCode = "NOPE"

	resp := postJSON(t, srv.URL+"/checkout", req)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if len(store.Vouchers()) != 0 {
		t.Error("checkout proceeded despite a rejected promo code")
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
