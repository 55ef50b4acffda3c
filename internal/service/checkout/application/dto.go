package application

import (
	"time"

	"vigor/internal/service/checkout/domain"
)

// CartLineInput is one requested cart line: a product, a quantity and the
// selected option values.
type CartLineInput struct {
	ProductID string            `json:"productId"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
}

// PriceCartRequest asks for a fully priced cart without committing anything.
type PriceCartRequest struct {
	Lines          []CartLineInput `json:"lines"`
	PromoCode      string          `json:"promoCode,omitempty"`
	CustomerEmail  string          `json:"customerEmail,omitempty"`
	LoyaltyPercent float64         `json:"loyaltyPercent,omitempty"`
}

// PricedLine is the response view of one cart line.
type PricedLine struct {
	ProductID       string  `json:"productId"`
	ProductName     string  `json:"productName"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`
	Subtotal        float64 `json:"subtotal"`
}

// PriceCartResponse returns the priced lines plus the order totals.
type PriceCartResponse struct {
	Lines  []PricedLine  `json:"lines"`
	Totals domain.Totals `json:"totals"`
}

// ValidatePromoRequest validates a code against a cart without redeeming it,
// so the UI can show errors before the customer commits.
type ValidatePromoRequest struct {
	Code          string          `json:"code"`
	Lines         []CartLineInput `json:"lines"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
}

// ValidatePromoResponse is the discriminated validation outcome.
type ValidatePromoResponse struct {
	Valid    bool    `json:"valid"`
	Code     string  `json:"code,omitempty"`
	Kind     string  `json:"kind,omitempty"`
	Message  string  `json:"message,omitempty"`
	Discount float64 `json:"discount,omitempty"`
}

// CheckoutRequest is the full checkout submission: the cart content plus the
// customer-entered payload.
type CheckoutRequest struct {
	Lines          []CartLineInput `json:"lines"`
	PromoCode      string          `json:"promoCode,omitempty"`
	LoyaltyPercent float64         `json:"loyaltyPercent,omitempty"`

	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	PaymentMethodID string `json:"paymentMethodId"`

	TermsAccepted          bool `json:"termsAccepted"`
	AcceptsRecurringCharge bool `json:"acceptsRecurringCharge"`

	VoucherExpiry     *time.Time `json:"voucherExpiry,omitempty"`
	SubscriptionStart *time.Time `json:"subscriptionStart,omitempty"`

	InstallmentPlanID string `json:"installmentPlanId,omitempty"`
	ReferralCode      string `json:"referralCode,omitempty"`
}

// Payload converts the request into the domain checkout payload.
func (r *CheckoutRequest) Payload() domain.CheckoutPayload {
	p := domain.CheckoutPayload{
		Name:                   r.Name,
		Email:                  r.Email,
		Phone:                  r.Phone,
		PaymentMethodID:        r.PaymentMethodID,
		TermsAccepted:          r.TermsAccepted,
		AcceptsRecurringCharge: r.AcceptsRecurringCharge,
		VoucherExpiry:          r.VoucherExpiry,
		SubscriptionStart:      r.SubscriptionStart,
		InstallmentPlanID:      r.InstallmentPlanID,
		ReferralCode:           r.ReferralCode,
	}
	return p
}

// CheckoutResult is the outcome of one checkout attempt. Validation issues
// and failure reasons are part of the result, never raised as errors.
type CheckoutResult struct {
	State               domain.AttemptState      `json:"state"`
	OrderID             string                   `json:"orderId,omitempty"`
	InvoiceID           string                   `json:"invoiceId,omitempty"`
	Totals              domain.Totals            `json:"totals"`
	InstallmentSchedule []domain.Installment     `json:"installmentSchedule,omitempty"`
	Issues              []domain.ValidationIssue `json:"issues,omitempty"`
	FailureReason       string                   `json:"failureReason,omitempty"`
}
