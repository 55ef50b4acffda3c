package rule

import (
	"testing"

	"vigor/internal/service/checkout/domain"
)

func engine(t *testing.T) *CELOfferEngine {
	t.Helper()
	e, err := NewCELOfferEngine()
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestDiscountPercent(t *testing.T) {
	e := engine(t)
	fact := domain.OfferFact{
		ProductID: "bono-10",
		Category:  "entrenamiento",
		Quantity:  5,
		Subtotal:  450,
	}

	tests := []struct {
		name string
		rule string
		want float64
	}{
		{"quantity threshold met", "quantity >= 5 ? 15.0 : 0.0", 15},
		{"quantity threshold missed", "quantity >= 10 ? 15.0 : 0.0", 0},
		{"subtotal and category", `subtotal > 100.0 && category == "entrenamiento" ? 10.0 : 0.0`, 10},
		{"product match", `product_id == "bono-10" ? 5.0 : 0.0`, 5},
		{"integer result", "quantity >= 5 ? 20 : 0", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.DiscountPercent(&domain.SpecialOffer{ID: "o", Rule: tt.rule}, fact)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("DiscountPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscountPercentRuleErrors(t *testing.T) {
	e := engine(t)
	fact := domain.OfferFact{ProductID: "p", Quantity: 1}

	t.Run("rule that does not compile", func(t *testing.T) {
		if _, err := e.DiscountPercent(&domain.SpecialOffer{ID: "bad", Rule: "quantity >=="}, fact); err == nil {
			t.Fatal("want compile error")
		}
	})

	t.Run("rule over unknown variables", func(t *testing.T) {
		if _, err := e.DiscountPercent(&domain.SpecialOffer{ID: "bad", Rule: "user_id == 'x' ? 5.0 : 0.0"}, fact); err == nil {
			t.Fatal("want compile error for unknown variable")
		}
	})

	t.Run("non numeric result", func(t *testing.T) {
		if _, err := e.DiscountPercent(&domain.SpecialOffer{ID: "bad", Rule: `"hello"`}, fact); err == nil {
			t.Fatal("want type error")
		}
	})
}

func TestProgramCache(t *testing.T) {
	e := engine(t)
	offer := &domain.SpecialOffer{ID: "o", Rule: "quantity >= 2 ? 10.0 : 0.0"}

	for i := 0; i < 3; i++ {
		if _, err := e.DiscountPercent(offer, domain.OfferFact{Quantity: 3}); err != nil {
			t.Fatal(err)
		}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.programs) != 1 {
		t.Errorf("cached programs = %d, want 1", len(e.programs))
	}
}
