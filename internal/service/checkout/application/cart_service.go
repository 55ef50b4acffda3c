package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vigor/internal/pkg/logger"
	"vigor/internal/service/checkout/domain"
)

// CartService builds priced carts from raw line inputs: catalog lookup,
// option and tier pricing, special-offer evaluation.
type CartService struct {
	products domain.ProductRepository
	offers   domain.OfferRepository
	engine   domain.OfferEngine
	cfg      domain.PricingConfig
	tracer   trace.Tracer

	now func() time.Time
}

func NewCartService(products domain.ProductRepository, offers domain.OfferRepository, engine domain.OfferEngine, cfg domain.PricingConfig, tracer trace.Tracer) *CartService {
	return &CartService{products: products, offers: offers, engine: engine, cfg: cfg, tracer: tracer, now: time.Now}
}

// BuildCart resolves products and prices every line. Inactive products and
// invalid option selections reject the whole build; the cart must be fully
// priceable before anything downstream sees it.
func (s *CartService) BuildCart(ctx context.Context, inputs []CartLineInput, promo *domain.PromoCode, loyaltyPercent float64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "cart.BuildCart")
	defer span.End()
	span.SetAttributes(attribute.Int("cart.lines", len(inputs)))

	cart := &domain.Cart{Promo: promo, LoyaltyPercent: loyaltyPercent}
	now := s.now()

	for _, input := range inputs {
		product, err := s.products.FindByID(ctx, input.ProductID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !product.Active {
			return nil, fmt.Errorf("product %s: %w", product.ID, domain.ErrProductUnavailable)
		}

		line, err := domain.NewCartLine(product, input.Quantity, input.Options)
		if err != nil {
			return nil, err
		}
		s.applyBestOffer(ctx, line, now)
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}

// applyBestOffer layers the single best live special offer onto a line. An
// offer lookup or rule failure only disables the offer, never the pricing.
func (s *CartService) applyBestOffer(ctx context.Context, line *domain.CartLine, now time.Time) {
	if s.offers == nil || s.engine == nil {
		return
	}
	offers, err := s.offers.ActiveForProduct(ctx, line.Product.ID, now)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", line.Product.ID).Msg("offer lookup failed, pricing without offers")
		return
	}
	fact := domain.OfferFact{
		ProductID: line.Product.ID,
		Category:  line.Product.Category,
		Quantity:  line.Quantity,
		Subtotal:  line.Pricing.Subtotal,
	}
	if pct := domain.BestOfferPercent(offers, s.engine, fact, now); pct > 0 {
		line.Pricing = domain.ApplyOfferPercent(line.Pricing, pct)
	}
}

// Totals recomputes the order totals from the cart's current state.
func (s *CartService) Totals(cart *domain.Cart) domain.Totals {
	return domain.ComputeTotals(cart, s.cfg)
}

// PricedLines renders the response view of a cart.
func PricedLines(cart *domain.Cart) []PricedLine {
	lines := make([]PricedLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, PricedLine{
			ProductID:       l.Product.ID,
			ProductName:     l.Product.Name,
			Quantity:        l.Quantity,
			UnitPrice:       l.Pricing.UnitPrice,
			DiscountPercent: l.Pricing.DiscountPercent,
			DiscountAmount:  l.Pricing.DiscountAmount,
			Subtotal:        l.Pricing.Subtotal,
		})
	}
	return lines
}
