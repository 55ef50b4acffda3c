package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"vigor/internal/pkg/logger"
	"vigor/internal/service/checkout/application"
	"vigor/internal/service/checkout/domain"
)

var (
	checkoutAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by terminal outcome.",
	}, []string{"outcome"})

	promoRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_rejections_total",
		Help: "Promo code validation rejections by kind.",
	}, []string{"kind"})
)

// CheckoutHandler wires the checkout application services onto HTTP.
type CheckoutHandler struct {
	carts    *application.CartService
	promos   *application.PromoService
	checkout *application.CheckoutService
}

func NewCheckoutHandler(carts *application.CartService, promos *application.PromoService, checkout *application.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, promos: promos, checkout: checkout}
}

// RegisterRoutes registers every route on the ServeMux.
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/price_cart", h.handlePriceCart)
	mux.HandleFunc("/validate_promo", h.handleValidatePromo)
	mux.HandleFunc("/checkout", h.handleCheckout)
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
}

func (h *CheckoutHandler) handlePriceCart(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.PriceCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Lines) == 0 {
		http.Error(w, "cart has no lines", http.StatusBadRequest)
		return
	}

	// Pricing a cart never redeems the code, so a bad code degrades to
	// pricing without it rather than failing the request.
	var promo *domain.PromoCode
	if req.PromoCode != "" {
		cart, err := h.carts.BuildCart(ctx, req.Lines, nil, req.LoyaltyPercent)
		if err != nil {
			h.writeBuildError(w, err)
			return
		}
		validation, err := h.promos.Validate(ctx, req.PromoCode, cart, req.CustomerEmail)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if validation.Valid {
			promo = validation.Code
		}
	}

	cart, err := h.carts.BuildCart(ctx, req.Lines, promo, req.LoyaltyPercent)
	if err != nil {
		h.writeBuildError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, application.PriceCartResponse{
		Lines:  application.PricedLines(cart),
		Totals: h.carts.Totals(cart),
	})
}

func (h *CheckoutHandler) handleValidatePromo(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.ValidatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cart, err := h.carts.BuildCart(ctx, req.Lines, nil, 0)
	if err != nil {
		h.writeBuildError(w, err)
		return
	}

	validation, err := h.promos.Validate(ctx, req.Code, cart, req.CustomerEmail)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !validation.Valid {
		promoRejections.WithLabelValues(string(validation.Kind)).Inc()
		writeJSON(w, http.StatusOK, application.ValidatePromoResponse{
			Valid:   false,
			Kind:    string(validation.Kind),
			Message: validation.Kind.Message(),
		})
		return
	}

	writeJSON(w, http.StatusOK, application.ValidatePromoResponse{
		Valid:    true,
		Code:     validation.Code.Code,
		Discount: validation.Code.DiscountOn(cart.Subtotal()),
	})
}

func (h *CheckoutHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Lines) == 0 {
		http.Error(w, "cart has no lines", http.StatusBadRequest)
		return
	}

	var promo *domain.PromoCode
	if req.PromoCode != "" {
		probe, err := h.carts.BuildCart(ctx, req.Lines, nil, req.LoyaltyPercent)
		if err != nil {
			h.writeBuildError(w, err)
			return
		}
		validation, err := h.promos.Validate(ctx, req.PromoCode, probe, req.Email)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !validation.Valid {
			promoRejections.WithLabelValues(string(validation.Kind)).Inc()
			writeJSON(w, http.StatusUnprocessableEntity, application.ValidatePromoResponse{
				Valid:   false,
				Kind:    string(validation.Kind),
				Message: validation.Kind.Message(),
			})
			return
		}
		promo = validation.Code
	}

	cart, err := h.carts.BuildCart(ctx, req.Lines, promo, req.LoyaltyPercent)
	if err != nil {
		h.writeBuildError(w, err)
		return
	}

	result, err := h.checkout.RunCheckout(ctx, cart, req.Payload())
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("checkout failed with infrastructure error")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch result.State {
	case domain.StateSucceeded:
		checkoutAttempts.WithLabelValues("succeeded").Inc()
		writeJSON(w, http.StatusOK, result)
	default:
		if len(result.Issues) > 0 {
			checkoutAttempts.WithLabelValues("rejected").Inc()
		} else {
			checkoutAttempts.WithLabelValues("failed").Inc()
		}
		writeJSON(w, http.StatusUnprocessableEntity, result)
	}
}

func (h *CheckoutHandler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// writeBuildError maps cart build failures onto status codes: bad product
// ids and quantities are the client's problem, everything else is ours.
func (h *CheckoutHandler) writeBuildError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrProductUnavailable) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrMissingOptions) {
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
