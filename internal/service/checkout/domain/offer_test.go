package domain

import (
	"errors"
	"testing"
	"time"
)

// stubEngine returns a canned percentage per offer id.
type stubEngine struct {
	percents map[string]float64
	failing  map[string]bool
}

func (e stubEngine) DiscountPercent(offer *SpecialOffer, fact OfferFact) (float64, error) {
	if e.failing[offer.ID] {
		return 0, errors.New("rule blew up")
	}
	return e.percents[offer.ID], nil
}

func liveOffer(id string, now time.Time, productIDs ...string) *SpecialOffer {
	return &SpecialOffer{
		ID:         id,
		Kind:       OfferVolume,
		StartDate:  now.AddDate(0, 0, -1),
		EndDate:    now.AddDate(0, 0, 1),
		ProductIDs: productIDs,
		Active:     true,
	}
}

func TestAppliesTo(t *testing.T) {
	now := time.Now()
	offer := liveOffer("o1", now, "bono")

	if !offer.AppliesTo("bono", now) {
		t.Error("live offer did not apply to its product")
	}
	if offer.AppliesTo("camiseta", now) {
		t.Error("offer applied to an unlisted product")
	}
	if offer.AppliesTo("bono", now.AddDate(0, 0, 2)) {
		t.Error("offer applied after its window")
	}
	if offer.AppliesTo("bono", now.AddDate(0, 0, -2)) {
		t.Error("offer applied before its window")
	}

	offer.Active = false
	if offer.AppliesTo("bono", now) {
		t.Error("inactive offer applied")
	}
}

func TestBestOfferPercent(t *testing.T) {
	now := time.Now()
	fact := OfferFact{ProductID: "bono", Category: "entrenamiento", Quantity: 5, Subtotal: 450}

	t.Run("single best wins, no stacking", func(t *testing.T) {
		offers := []*SpecialOffer{
			liveOffer("small", now, "bono"),
			liveOffer("big", now, "bono"),
		}
		engine := stubEngine{percents: map[string]float64{"small": 5, "big": 20}}
		if got := BestOfferPercent(offers, engine, fact, now); got != 20 {
			t.Errorf("BestOfferPercent() = %v, want 20", got)
		}
	})

	t.Run("failing rule disables only that offer", func(t *testing.T) {
		offers := []*SpecialOffer{
			liveOffer("broken", now, "bono"),
			liveOffer("ok", now, "bono"),
		}
		engine := stubEngine{
			percents: map[string]float64{"ok": 10},
			failing:  map[string]bool{"broken": true},
		}
		if got := BestOfferPercent(offers, engine, fact, now); got != 10 {
			t.Errorf("BestOfferPercent() = %v, want 10", got)
		}
	})

	t.Run("capped at 100", func(t *testing.T) {
		offers := []*SpecialOffer{liveOffer("huge", now, "bono")}
		engine := stubEngine{percents: map[string]float64{"huge": 250}}
		if got := BestOfferPercent(offers, engine, fact, now); got != 100 {
			t.Errorf("BestOfferPercent() = %v, want 100", got)
		}
	})

	t.Run("no applicable offers", func(t *testing.T) {
		offers := []*SpecialOffer{liveOffer("other", now, "camiseta")}
		engine := stubEngine{percents: map[string]float64{"other": 50}}
		if got := BestOfferPercent(offers, engine, fact, now); got != 0 {
			t.Errorf("BestOfferPercent() = %v, want 0", got)
		}
	})
}
