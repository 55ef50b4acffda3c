package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidQuantity = errors.New("cart line quantity must be a positive integer")
	ErrMissingOptions  = errors.New("missing required options")
)

// CartLine is one product entry in a cart with its own quantity and option
// selection. Pricing is derived state, recomputed on every change.
type CartLine struct {
	Product  *Product
	Quantity int
	Options  SelectedOptions
	Pricing  LinePricing
}

// NewCartLine builds and prices a line. Required-option validation happens
// here, not in the pricing resolver.
func NewCartLine(p *Product, quantity int, sel SelectedOptions) (*CartLine, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if missing := p.MissingRequiredOptions(sel); len(missing) > 0 {
		return nil, fmt.Errorf("product %s %w: %v", p.ID, ErrMissingOptions, missing)
	}
	line := &CartLine{Product: p, Quantity: quantity, Options: sel}
	line.Reprice()
	return line, nil
}

// Reprice recomputes the derived pricing from the line's current state.
func (l *CartLine) Reprice() {
	l.Pricing = PriceLine(l.Product, l.Quantity, l.Options)
}

// SetQuantity updates the quantity and reprices the line.
func (l *CartLine) SetQuantity(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	l.Quantity = quantity
	l.Reprice()
	return nil
}

// Cart is an ordered sequence of lines plus the order-level discounts that
// apply across them.
type Cart struct {
	Lines []*CartLine
	Promo *PromoCode

	// LoyaltyPercent is an optional returning-customer discount applied to
	// the subtotal before the promo code.
	LoyaltyPercent float64
}

// Subtotal sums line subtotals, already net of per-line discounts.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, line := range c.Lines {
		sum += line.Pricing.Subtotal
	}
	return sum
}

// HasVoucherLine reports whether any line is a prepaid session bundle.
func (c *Cart) HasVoucherLine() bool {
	for _, line := range c.Lines {
		if line.Product.IsVoucher {
			return true
		}
	}
	return false
}

// HasSubscriptionLine reports whether any line creates recurring billing.
func (c *Cart) HasSubscriptionLine() bool {
	for _, line := range c.Lines {
		if line.Product.IsSubscription() {
			return true
		}
	}
	return false
}

// PricingConfig carries the order-level rates. These are deployment
// configuration, never constants inside the engine.
type PricingConfig struct {
	TaxRate               float64
	FreeShippingThreshold float64
	ShippingBaseRate      float64
}

// DefaultPricingConfig matches the Spanish storefront deployment: 21% VAT,
// free shipping from 50, flat 4.95 below that.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		TaxRate:               0.21,
		FreeShippingThreshold: 50,
		ShippingBaseRate:      4.95,
	}
}

// Totals is the order-level money breakdown. All fields are rounded to
// cents, the display convention observed throughout the storefront.
type Totals struct {
	Subtotal        float64 `json:"subtotal"`
	LoyaltyDiscount float64 `json:"loyaltyDiscount,omitempty"`
	PromoDiscount   float64 `json:"promoDiscount"`
	Tax             float64 `json:"tax"`
	Shipping        float64 `json:"shipping"`
	Total           float64 `json:"total"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals derives the order totals from the full cart state. It is a
// pure recomputation: lines, quantities, options and promo code can change
// in any order in the UI, so nothing here may be incremental or cached.
//
// Tax and shipping are computed on the post-discount subtotal. A fixed promo
// discount is capped at the amount it applies to, so the net subtotal never
// goes negative.
func ComputeTotals(c *Cart, cfg PricingConfig) Totals {
	t := Totals{Subtotal: round2(c.Subtotal())}

	net := t.Subtotal
	if c.LoyaltyPercent > 0 {
		t.LoyaltyDiscount = round2(net * c.LoyaltyPercent / 100)
		net = clampMoney(net - t.LoyaltyDiscount)
	}
	if c.Promo != nil {
		t.PromoDiscount = round2(c.Promo.DiscountOn(net))
		net = clampMoney(net - t.PromoDiscount)
	}

	t.Tax = round2(net * cfg.TaxRate)
	if net < cfg.FreeShippingThreshold {
		t.Shipping = round2(cfg.ShippingBaseRate)
	}
	t.Total = round2(net + t.Tax + t.Shipping)
	return t
}
