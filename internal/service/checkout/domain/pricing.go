package domain

import (
	"math"
	"sort"
)

// SelectedOptions maps option id to the chosen value id for one cart line.
type SelectedOptions map[string]string

// clampMoney keeps monetary arithmetic inside the non-negative reals.
// Negative or NaN intermediate results collapse to zero instead of
// propagating into totals.
func clampMoney(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// UnitPrice computes a product's effective unit price for a selection of
// customizable options. Missing or unavailable selections are skipped, not
// rejected; option validity is a separate concern handled at the cart layer.
//
// Percentage deltas are always computed against the original base price, so
// several percentage-modifying options never compound on each other. Product
// owners have flagged this rule as possibly unintended but it is the contract.
func UnitPrice(p *Product, sel SelectedOptions) float64 {
	price := p.BasePrice
	for i := range p.Options {
		opt := &p.Options[i]
		valueID, ok := sel[opt.ID]
		if !ok {
			continue
		}
		val := opt.FindValue(valueID)
		if val == nil || !val.Available {
			continue
		}
		price += val.PriceDelta
		if val.PercentDelta != 0 {
			price += p.BasePrice * val.PercentDelta / 100
		}
	}
	return clampMoney(price)
}

// ResolveTier picks the quantity discount tier for a requested quantity:
// tiers are evaluated highest minimum first and the first satisfied tier
// wins, so tiers never stack. Tiers sharing a minimum keep their source
// order. Returns nil when no tier qualifies.
func ResolveTier(p *Product, quantity int) *QuantityDiscount {
	if len(p.QuantityDiscounts) == 0 {
		return nil
	}
	tiers := make([]QuantityDiscount, len(p.QuantityDiscounts))
	copy(tiers, p.QuantityDiscounts)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinQuantity > tiers[j].MinQuantity
	})
	for i := range tiers {
		if tiers[i].MinQuantity <= quantity {
			return &tiers[i]
		}
	}
	return nil
}

// LinePricing is the derived pricing of one cart line.
type LinePricing struct {
	// UnitPrice is the per-unit price after option modifiers, before any
	// quantity or offer discount.
	UnitPrice       float64
	DiscountPercent float64
	DiscountAmount  float64
	Subtotal        float64
}

// PriceLine prices one cart line: option-adjusted unit price, quantity tier
// discount, line subtotal. Quantity must be >= 1; that precondition belongs
// to the caller building the line.
func PriceLine(p *Product, quantity int, sel SelectedOptions) LinePricing {
	unit := UnitPrice(p, sel)
	pricing := LinePricing{UnitPrice: unit}

	discountedUnit := unit
	if tier := ResolveTier(p, quantity); tier != nil {
		pricing.DiscountPercent = tier.Percent
		discountedUnit = unit * (1 - tier.Percent/100)
	}

	qty := float64(quantity)
	pricing.Subtotal = clampMoney(discountedUnit * qty)
	pricing.DiscountAmount = clampMoney(unit*qty - pricing.Subtotal)
	return pricing
}

// ApplyOfferPercent layers a special-offer percentage on top of an already
// priced line. The extra discount applies to the post-tier subtotal; offers
// never stack with each other (the caller picks the single best one).
func ApplyOfferPercent(pricing LinePricing, percent float64) LinePricing {
	if percent <= 0 {
		return pricing
	}
	if percent > 100 {
		percent = 100
	}
	extra := pricing.Subtotal * percent / 100
	pricing.Subtotal = clampMoney(pricing.Subtotal - extra)
	pricing.DiscountAmount = clampMoney(pricing.DiscountAmount + extra)
	return pricing
}
