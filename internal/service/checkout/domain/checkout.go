package domain

import (
	"time"
)

// AttemptState is the lifecycle of one checkout attempt. Terminal states are
// never retried automatically; the caller re-invokes from idle.
type AttemptState string

const (
	StateIdle       AttemptState = "IDLE"
	StateValidating AttemptState = "VALIDATING"
	StateProcessing AttemptState = "PROCESSING"
	StateSucceeded  AttemptState = "SUCCEEDED"
	StateFailed     AttemptState = "FAILED"
)

// PaymentMethod is one of the storefront's checkout options. SupportsRecurring
// is a hand-entered business rule, not inferred from the method kind: bank
// transfer and cash cannot carry an automatic recurring charge.
type PaymentMethod struct {
	ID                string
	Name              string
	SupportsRecurring bool
}

var paymentMethods = map[string]PaymentMethod{
	"tarjeta":          {ID: "tarjeta", Name: "Credit/debit card", SupportsRecurring: true},
	"transferencia":    {ID: "transferencia", Name: "Bank transfer", SupportsRecurring: false},
	"paypal":           {ID: "paypal", Name: "PayPal", SupportsRecurring: true},
	"bizum":            {ID: "bizum", Name: "Bizum", SupportsRecurring: true},
	"efectivo":         {ID: "efectivo", Name: "Cash", SupportsRecurring: false},
	"pago_fraccionado": {ID: "pago_fraccionado", Name: "Installments", SupportsRecurring: true},
}

// PaymentMethodByID resolves a payment method id; ok is false for unknown ids.
func PaymentMethodByID(id string) (PaymentMethod, bool) {
	m, ok := paymentMethods[id]
	return m, ok
}

// CheckoutPayload carries the customer-entered checkout form. The optional
// fields are only required when the cart contains voucher or subscription
// products.
type CheckoutPayload struct {
	Name            string
	Email           string
	Phone           string
	PaymentMethodID string

	TermsAccepted          bool
	AcceptsRecurringCharge bool

	VoucherExpiry     *time.Time
	SubscriptionStart *time.Time

	// InstallmentPlanID selects a split-payment plan offered by a product
	// in the cart.
	InstallmentPlanID string
	ReferralCode      string
}

// ValidationIssue is one structured, user-displayable gate failure.
type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidateFor runs the checkout validation gate for a cart. Every issue is
// collected so the form can surface them all at once; any issue blocks the
// transition to processing.
func (p *CheckoutPayload) ValidateFor(c *Cart) []ValidationIssue {
	var issues []ValidationIssue
	if !p.TermsAccepted {
		issues = append(issues, ValidationIssue{Field: "termsAccepted", Reason: "terms must be accepted"})
	}
	if p.Name == "" {
		issues = append(issues, ValidationIssue{Field: "name", Reason: "name is required"})
	}
	if p.Email == "" {
		issues = append(issues, ValidationIssue{Field: "email", Reason: "email is required"})
	}
	if p.Phone == "" {
		issues = append(issues, ValidationIssue{Field: "phone", Reason: "phone is required"})
	}

	method, knownMethod := PaymentMethodByID(p.PaymentMethodID)
	if !knownMethod {
		issues = append(issues, ValidationIssue{Field: "paymentMethod", Reason: "unknown payment method"})
	}

	if c.HasVoucherLine() && p.VoucherExpiry == nil {
		issues = append(issues, ValidationIssue{Field: "voucherExpiry", Reason: "voucher purchases need an expiry date"})
	}

	if c.HasSubscriptionLine() {
		if !p.AcceptsRecurringCharge {
			issues = append(issues, ValidationIssue{Field: "acceptsRecurringCharge", Reason: "recurring charge consent is required for subscriptions"})
		}
		if knownMethod && !method.SupportsRecurring {
			issues = append(issues, ValidationIssue{Field: "paymentMethod", Reason: "payment method " + method.ID + " does not support recurring charges"})
		}
	}
	return issues
}

// Installment is one scheduled part of a split payment.
type Installment struct {
	Number  int       `json:"number"`
	Amount  float64   `json:"amount"`
	DueDate time.Time `json:"dueDate"`
}

// BuildInstallmentSchedule splits a total into n equal monthly installments
// with the interest of the chosen plan spread across them. The final
// installment absorbs the rounding remainder so the schedule sums exactly.
func BuildInstallmentSchedule(total float64, plan *InstallmentPlan, firstDue time.Time) []Installment {
	if plan == nil || plan.Installments < 2 {
		return nil
	}
	charged := round2(total * (1 + plan.InterestPercent/100))
	per := round2(charged / float64(plan.Installments))

	schedule := make([]Installment, plan.Installments)
	var accumulated float64
	for i := 0; i < plan.Installments; i++ {
		amount := per
		if i == plan.Installments-1 {
			amount = round2(charged - accumulated)
		}
		schedule[i] = Installment{
			Number:  i + 1,
			Amount:  amount,
			DueDate: firstDue.AddDate(0, i, 0),
		}
		accumulated = round2(accumulated + amount)
	}
	return schedule
}

// Order is the persisted outcome of a successful checkout.
type Order struct {
	ID        string
	InvoiceID string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	Lines           []*CartLine
	Totals          Totals
	PaymentMethodID string
	PromoCodeID     string
	ReferralCode    string

	InstallmentSchedule []Installment

	State     AttemptState
	CreatedAt time.Time
}
