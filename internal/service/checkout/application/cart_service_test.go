package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"vigor/internal/service/checkout/domain"
)

type fakeProducts struct {
	byID map[string]*domain.Product
}

func (f *fakeProducts) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProducts) List(ctx context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

type fakeOffers struct {
	offers []*domain.SpecialOffer
	err    error
}

func (f *fakeOffers) ActiveForProduct(ctx context.Context, productID string, now time.Time) ([]*domain.SpecialOffer, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.SpecialOffer
	for _, o := range f.offers {
		if o.AppliesTo(productID, now) {
			out = append(out, o)
		}
	}
	return out, nil
}

type fixedEngine struct{ percent float64 }

func (e fixedEngine) DiscountPercent(offer *domain.SpecialOffer, fact domain.OfferFact) (float64, error) {
	return e.percent, nil
}

func testCatalog() *fakeProducts {
	return &fakeProducts{byID: map[string]*domain.Product{
		"bono": {
			ID: "bono", Name: "Bono 10", Category: "entrenamiento",
			BasePrice: 90, Active: true, IsVoucher: true, Sessions: 10,
			QuantityDiscounts: []domain.QuantityDiscount{{MinQuantity: 3, Percent: 10}},
		},
		"retirado": {ID: "retirado", Name: "Producto retirado", BasePrice: 10, Active: false},
		"camiseta": {
			ID: "camiseta", Name: "Camiseta", Category: "merchandising",
			BasePrice: 19.95, Active: true,
			Options: []domain.CustomOption{
				{ID: "talla", Required: true, Values: []domain.OptionValue{{ID: "m", Available: true}}},
			},
		},
	}}
}

func newCartService(products *fakeProducts, offers *fakeOffers, engine domain.OfferEngine) *CartService {
	return NewCartService(products, offers, engine, domain.DefaultPricingConfig(), otel.Tracer("test"))
}

func TestBuildCart(t *testing.T) {
	svc := newCartService(testCatalog(), nil, nil)

	t.Run("prices every line", func(t *testing.T) {
		cart, err := svc.BuildCart(context.Background(), []CartLineInput{
			{ProductID: "bono", Quantity: 3},
			{ProductID: "camiseta", Quantity: 1, Options: map[string]string{"talla": "m"}},
		}, nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(cart.Lines) != 2 {
			t.Fatalf("lines = %d, want 2", len(cart.Lines))
		}
		if cart.Lines[0].Pricing.DiscountPercent != 10 {
			t.Errorf("tier discount = %v, want 10", cart.Lines[0].Pricing.DiscountPercent)
		}
	})

	t.Run("unknown product rejects the build", func(t *testing.T) {
		_, err := svc.BuildCart(context.Background(), []CartLineInput{{ProductID: "nope", Quantity: 1}}, nil, 0)
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("err = %v, want ErrProductNotFound", err)
		}
	})

	t.Run("inactive product rejects the build", func(t *testing.T) {
		_, err := svc.BuildCart(context.Background(), []CartLineInput{{ProductID: "retirado", Quantity: 1}}, nil, 0)
		if !errors.Is(err, domain.ErrProductUnavailable) {
			t.Errorf("err = %v, want ErrProductUnavailable", err)
		}
	})

	t.Run("missing required option rejects the build", func(t *testing.T) {
		_, err := svc.BuildCart(context.Background(), []CartLineInput{{ProductID: "camiseta", Quantity: 1}}, nil, 0)
		if !errors.Is(err, domain.ErrMissingOptions) {
			t.Errorf("err = %v, want ErrMissingOptions", err)
		}
	})
}

func TestBuildCartAppliesOffers(t *testing.T) {
	now := time.Now()
	offers := &fakeOffers{offers: []*domain.SpecialOffer{{
		ID: "promo-bonos", Kind: domain.OfferVolume, Active: true,
		StartDate: now.AddDate(0, 0, -1), EndDate: now.AddDate(0, 0, 1),
		ProductIDs: []string{"bono"},
	}}}

	t.Run("offer discount layers on the line", func(t *testing.T) {
		svc := newCartService(testCatalog(), offers, fixedEngine{percent: 20})
		cart, err := svc.BuildCart(context.Background(), []CartLineInput{{ProductID: "bono", Quantity: 1}}, nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got := cart.Lines[0].Pricing.Subtotal; got != 72 {
			t.Errorf("Subtotal = %v, want 72 after 20%% offer", got)
		}
	})

	t.Run("offer lookup failure prices without offers", func(t *testing.T) {
		svc := newCartService(testCatalog(), &fakeOffers{err: errors.New("offers down")}, fixedEngine{percent: 20})
		cart, err := svc.BuildCart(context.Background(), []CartLineInput{{ProductID: "bono", Quantity: 1}}, nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got := cart.Lines[0].Pricing.Subtotal; got != 90 {
			t.Errorf("Subtotal = %v, want undiscounted 90", got)
		}
	})
}

func TestTotalsAndPricedLines(t *testing.T) {
	svc := newCartService(testCatalog(), nil, nil)
	promo := &domain.PromoCode{ID: "s", Code: "SUMMER10", Type: domain.DiscountPercentage, Value: 10, Active: true}

	cart, err := svc.BuildCart(context.Background(), []CartLineInput{{ProductID: "bono", Quantity: 1}}, promo, 0)
	if err != nil {
		t.Fatal(err)
	}

	totals := svc.Totals(cart)
	if totals.Subtotal != 90 || totals.PromoDiscount != 9 {
		t.Errorf("Totals = %+v", totals)
	}

	lines := PricedLines(cart)
	if len(lines) != 1 || lines[0].ProductName != "Bono 10" || lines[0].Subtotal != 90 {
		t.Errorf("PricedLines = %+v", lines)
	}
}
