package application

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vigor/internal/pkg/logger"
	"vigor/internal/service/checkout/domain"
)

// PromoService owns promo-code validation, redemption and administration.
// Validation never redeems: the UI calls Validate to show errors, and only a
// completed checkout calls Redeem.
type PromoService struct {
	repo   domain.PromoCodeRepository
	usage  domain.PromoUsageStore
	tracer trace.Tracer

	now func() time.Time
}

func NewPromoService(repo domain.PromoCodeRepository, usage domain.PromoUsageStore, tracer trace.Tracer) *PromoService {
	return &PromoService{repo: repo, usage: usage, tracer: tracer, now: time.Now}
}

// Validate runs the ordered eligibility checks for a code against a cart.
// The check order is part of the contract; the first failure wins so error
// messages stay deterministic. An error return means an infrastructure
// failure, not an ineligible code.
func (s *PromoService) Validate(ctx context.Context, rawCode string, cart *domain.Cart, customerEmail string) (domain.Validation, error) {
	ctx, span := s.tracer.Start(ctx, "promo.Validate")
	defer span.End()
	span.SetAttributes(attribute.String("promo.code", domain.CanonicalCode(rawCode)))

	pc, err := s.repo.FindByCode(ctx, domain.CanonicalCode(rawCode))
	if err != nil {
		if errors.Is(err, domain.ErrPromoNotFound) {
			return domain.Reject(domain.RejectionNotFound), nil
		}
		span.RecordError(err)
		return domain.Validation{}, err
	}

	if !pc.Active {
		return domain.Reject(domain.RejectionInactive), nil
	}

	now := s.now()
	if pc.StartDate != nil && now.Before(*pc.StartDate) {
		return domain.Reject(domain.RejectionNotYetValid), nil
	}
	if pc.EndDate != nil && now.After(*pc.EndDate) {
		return domain.Reject(domain.RejectionExpired), nil
	}

	if pc.MaxTotalUses != nil {
		uses, err := s.usage.TotalUses(ctx, pc.ID)
		if err != nil {
			span.RecordError(err)
			return domain.Validation{}, err
		}
		if uses >= *pc.MaxTotalUses {
			return domain.Reject(domain.RejectionGlobalCapReached), nil
		}
	}

	// The per-customer cap can only be enforced when the caller knows who
	// the customer is.
	if pc.MaxUsesPerCustomer != nil && customerEmail != "" {
		uses, err := s.usage.CustomerUses(ctx, pc.ID, customerEmail)
		if err != nil {
			span.RecordError(err)
			return domain.Validation{}, err
		}
		if uses >= *pc.MaxUsesPerCustomer {
			return domain.Reject(domain.RejectionCustomerCapReached), nil
		}
	}

	if pc.MinPurchase != nil && cart.Subtotal() < *pc.MinPurchase {
		return domain.Reject(domain.RejectionBelowMinimum), nil
	}

	if len(pc.ProductIDs) > 0 && !cartContainsProduct(cart, pc.ProductIDs) {
		return domain.Reject(domain.RejectionProductNotEligible), nil
	}
	if len(pc.Categories) > 0 && !cartContainsCategory(cart, pc.Categories) {
		return domain.Reject(domain.RejectionCategoryNotEligible), nil
	}

	return domain.Validation{Valid: true, Code: pc}, nil
}

// Redeem records one successful redemption: the usage store for cap
// enforcement plus the persisted counter for administration.
func (s *PromoService) Redeem(ctx context.Context, pc *domain.PromoCode, customerEmail string) error {
	ctx, span := s.tracer.Start(ctx, "promo.Redeem")
	defer span.End()

	if err := s.usage.RecordUse(ctx, pc.ID, customerEmail); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.repo.IncrementUsage(ctx, pc.ID); err != nil {
		// The cap-enforcing store already counted the use; the persisted
		// counter is advisory, so log and carry on.
		logger.Ctx(ctx).Warn().Err(err).Str("promo_id", pc.ID).Msg("failed to persist promo usage counter")
	}
	return nil
}

// Create registers a new promo code after enforcing the admin invariants.
func (s *PromoService) Create(ctx context.Context, pc *domain.PromoCode) error {
	pc.Code = domain.CanonicalCode(pc.Code)
	if err := pc.CheckInvariants(); err != nil {
		return err
	}
	return s.repo.Create(ctx, pc)
}

// Update modifies an existing code under the same invariants.
func (s *PromoService) Update(ctx context.Context, pc *domain.PromoCode) error {
	pc.Code = domain.CanonicalCode(pc.Code)
	if err := pc.CheckInvariants(); err != nil {
		return err
	}
	return s.repo.Update(ctx, pc)
}

// Deactivate turns a code off without deleting its history.
func (s *PromoService) Deactivate(ctx context.Context, code string) error {
	pc, err := s.repo.FindByCode(ctx, domain.CanonicalCode(code))
	if err != nil {
		return err
	}
	pc.Active = false
	return s.repo.Update(ctx, pc)
}

func cartContainsProduct(cart *domain.Cart, ids []string) bool {
	for _, line := range cart.Lines {
		for _, id := range ids {
			if line.Product.ID == id {
				return true
			}
		}
	}
	return false
}

func cartContainsCategory(cart *domain.Cart, categories []string) bool {
	for _, line := range cart.Lines {
		for _, cat := range categories {
			if line.Product.Category == cat {
				return true
			}
		}
	}
	return false
}
