package domain

import "time"

// OfferKind mirrors the storefront's special-offer families.
type OfferKind string

const (
	OfferLimitedTime OfferKind = "LIMITED_TIME"
	OfferVolume      OfferKind = "VOLUME"
	OfferBundle      OfferKind = "BUNDLE"
	OfferFlash       OfferKind = "FLASH"
)

// SpecialOffer is a time-windowed discount bound to specific products. Its
// Rule is a restricted expression (CEL) over the line being priced; it must
// evaluate to a discount percentage. Dynamic code execution is explicitly
// off the table for offer rules.
type SpecialOffer struct {
	ID         string
	Name       string
	Kind       OfferKind
	StartDate  time.Time
	EndDate    time.Time
	ProductIDs []string
	Rule       string
	Active     bool
}

// AppliesTo reports whether the offer is live for a product at a moment.
func (o *SpecialOffer) AppliesTo(productID string, now time.Time) bool {
	if !o.Active || now.Before(o.StartDate) || now.After(o.EndDate) {
		return false
	}
	for _, id := range o.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// OfferFact is the evaluation input an offer rule sees for one cart line.
type OfferFact struct {
	ProductID string
	Category  string
	Quantity  int
	Subtotal  float64
}

// OfferEngine evaluates an offer rule against a line fact. Implementations
// live in infrastructure; the domain only depends on the contract.
type OfferEngine interface {
	DiscountPercent(offer *SpecialOffer, fact OfferFact) (float64, error)
}

// BestOfferPercent evaluates every live offer for a line and returns the
// single best discount percentage. Offers never stack; a rule that fails to
// evaluate disables that offer rather than the whole pricing pass.
func BestOfferPercent(offers []*SpecialOffer, engine OfferEngine, fact OfferFact, now time.Time) float64 {
	var best float64
	for _, offer := range offers {
		if !offer.AppliesTo(fact.ProductID, now) {
			continue
		}
		pct, err := engine.DiscountPercent(offer, fact)
		if err != nil || pct <= 0 {
			continue
		}
		if pct > best {
			best = pct
		}
	}
	if best > 100 {
		best = 100
	}
	return best
}
