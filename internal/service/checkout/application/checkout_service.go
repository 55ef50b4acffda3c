package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vigor/internal/pkg/logger"
	"vigor/internal/service/checkout/domain"
)

// CheckoutService orchestrates one checkout attempt: the hard validation
// gate, the payment step, and the soft post-commit side effects.
//
// The asymmetry is deliberate and must not be "fixed": gate and payment
// failures fail the checkout; subscription, voucher, referral and event
// failures are logged and swallowed so a captured payment is never lost to
// secondary bookkeeping.
type CheckoutService struct {
	cfg       domain.PricingConfig
	customers domain.CustomerRepository
	subs      domain.SubscriptionRepository
	vouchers  domain.VoucherRepository
	referrals domain.ReferralRegistrar
	orders    domain.OrderRepository
	payments  domain.PaymentProcessor
	promos    *PromoService
	events    domain.EventProducer
	tracer    trace.Tracer

	now func() time.Time
}

type CheckoutDeps struct {
	Customers domain.CustomerRepository
	Subs      domain.SubscriptionRepository
	Vouchers  domain.VoucherRepository
	Referrals domain.ReferralRegistrar
	Orders    domain.OrderRepository
	Payments  domain.PaymentProcessor
	Promos    *PromoService
	Events    domain.EventProducer
}

func NewCheckoutService(cfg domain.PricingConfig, deps CheckoutDeps, tracer trace.Tracer) *CheckoutService {
	return &CheckoutService{
		cfg:       cfg,
		customers: deps.Customers,
		subs:      deps.Subs,
		vouchers:  deps.Vouchers,
		referrals: deps.Referrals,
		orders:    deps.Orders,
		payments:  deps.Payments,
		promos:    deps.Promos,
		events:    deps.Events,
		tracer:    tracer,
		now:       time.Now,
	}
}

// RunCheckout drives the attempt through validating, processing and a
// terminal state. Terminal states are not retried here; the caller may
// re-invoke with a fresh attempt. An error return means infrastructure
// failure before any state was reached, not a declined checkout.
func (s *CheckoutService) RunCheckout(ctx context.Context, cart *domain.Cart, payload domain.CheckoutPayload) (*CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.RunCheckout")
	defer span.End()

	// Validating: every issue is collected; any issue stops the attempt
	// before processing begins.
	issues := payload.ValidateFor(cart)
	if len(issues) > 0 {
		span.SetStatus(codes.Error, "checkout validation gate failed")
		span.SetAttributes(attribute.Int("checkout.issues", len(issues)))
		return &CheckoutResult{State: domain.StateFailed, Issues: issues}, nil
	}

	// Processing.
	totals := domain.ComputeTotals(cart, s.cfg)
	orderID := uuid.New().String()
	invoiceID := uuid.New().String()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Float64("order.total", totals.Total),
	)

	order := &domain.Order{
		ID:              orderID,
		InvoiceID:       invoiceID,
		CustomerName:    payload.Name,
		CustomerEmail:   payload.Email,
		CustomerPhone:   payload.Phone,
		Lines:           cart.Lines,
		Totals:          totals,
		PaymentMethodID: payload.PaymentMethodID,
		ReferralCode:    payload.ReferralCode,
		State:           domain.StateProcessing,
		CreatedAt:       s.now(),
	}
	if cart.Promo != nil {
		order.PromoCodeID = cart.Promo.ID
	}
	if payload.InstallmentPlanID != "" {
		order.InstallmentSchedule = s.buildSchedule(cart, payload.InstallmentPlanID, totals.Total)
	}

	if err := s.payments.Charge(ctx, orderID, totals.Total, payload.PaymentMethodID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment failed")
		return &CheckoutResult{
			State:         domain.StateFailed,
			Totals:        totals,
			FailureReason: fmt.Sprintf("payment failed: %v", err),
		}, nil
	}

	order.State = domain.StateSucceeded
	if err := s.orders.Save(ctx, order); err != nil {
		// The payment is captured; losing the local order record is a
		// bookkeeping failure to be repaired, not a reason to fail.
		logger.Ctx(ctx).Error().Err(err).Str("order_id", orderID).Msg("failed to persist order")
		span.RecordError(err)
	}

	s.runSideEffects(ctx, cart, payload, order)

	return &CheckoutResult{
		State:               domain.StateSucceeded,
		OrderID:             orderID,
		InvoiceID:           invoiceID,
		Totals:              totals,
		InstallmentSchedule: order.InstallmentSchedule,
	}, nil
}

// buildSchedule resolves the chosen plan from the cart's products and
// builds the installment schedule. An unknown or ineligible plan just skips
// the schedule; the order still charges in full.
func (s *CheckoutService) buildSchedule(cart *domain.Cart, planID string, total float64) []domain.Installment {
	for _, line := range cart.Lines {
		if !line.Product.AllowInstallments {
			continue
		}
		plan := line.Product.FindInstallmentPlan(planID)
		if plan == nil || total < plan.MinAmount {
			continue
		}
		return domain.BuildInstallmentSchedule(total, plan, s.now().AddDate(0, 1, 0))
	}
	return nil
}

// runSideEffects executes the post-commit steps concurrently. They are
// independent and unordered; each failure is logged and swallowed.
func (s *CheckoutService) runSideEffects(ctx context.Context, cart *domain.Cart, payload domain.CheckoutPayload, order *domain.Order) {
	ctx, span := s.tracer.Start(ctx, "checkout.SideEffects")
	defer span.End()

	var customer *domain.Customer
	if cart.HasSubscriptionLine() || cart.HasVoucherLine() {
		customer = s.resolveCustomer(ctx, payload)
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, line := range cart.Lines {
		i, line := i, line
		if line.Product.IsSubscription() {
			g.Go(s.bestEffort(gctx, "subscription", func(ctx context.Context) error {
				return s.createSubscription(ctx, order, line, i, payload, customer)
			}))
		}
		if line.Product.IsVoucher {
			g.Go(s.bestEffort(gctx, "voucher", func(ctx context.Context) error {
				return s.createVouchers(ctx, order, line, i, payload, customer)
			}))
		}
	}

	if payload.ReferralCode != "" {
		g.Go(s.bestEffort(gctx, "referral", func(ctx context.Context) error {
			return s.referrals.Register(ctx, domain.Referral{
				Code:            payload.ReferralCode,
				CustomerEmail:   payload.Email,
				CustomerName:    payload.Name,
				OrderID:         order.ID,
				DiscountApplied: order.Totals.PromoDiscount + order.Totals.LoyaltyDiscount,
			})
		}))
	}

	if cart.Promo != nil {
		promo := cart.Promo
		g.Go(s.bestEffort(gctx, "promo-redemption", func(ctx context.Context) error {
			return s.promos.Redeem(ctx, promo, payload.Email)
		}))
	}

	if s.events != nil {
		g.Go(s.bestEffort(gctx, "order-event", func(ctx context.Context) error {
			return s.events.OrderCompleted(ctx, order)
		}))
	}

	// bestEffort never returns an error, so Wait only synchronizes.
	_ = g.Wait()
}

// bestEffort wraps a side-effect step: failures are logged with the step
// name and swallowed so they can never fail the checkout.
func (s *CheckoutService) bestEffort(ctx context.Context, step string, fn func(context.Context) error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				logger.Ctx(ctx).Error().Interface("panic", r).Str("step", step).Msg("side effect panicked")
			}
		}()
		if err := fn(ctx); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("step", step).Msg("side effect failed, continuing")
		}
		return nil
	}
}

// resolveCustomer finds or creates the customer record side effects hang
// off. On failure the effects still run, keyed by email only.
func (s *CheckoutService) resolveCustomer(ctx context.Context, payload domain.CheckoutPayload) *domain.Customer {
	customer, err := s.customers.FindByEmail(ctx, payload.Email)
	if err == nil {
		return customer
	}
	customer, err = s.customers.Create(ctx, &domain.Customer{
		ID:    uuid.New().String(),
		Name:  payload.Name,
		Email: payload.Email,
		Phone: payload.Phone,
	})
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("email", payload.Email).Msg("could not resolve customer for side effects")
		return nil
	}
	return customer
}

func (s *CheckoutService) createSubscription(ctx context.Context, order *domain.Order, line *domain.CartLine, lineIdx int, payload domain.CheckoutPayload, customer *domain.Customer) error {
	start := order.CreatedAt
	if payload.SubscriptionStart != nil {
		start = *payload.SubscriptionStart
	}
	sub := &domain.Subscription{
		ID:              uuid.New().String(),
		IdempotencyKey:  fmt.Sprintf("%s:subscription:%d", order.ID, lineIdx),
		OrderID:         order.ID,
		ProductID:       line.Product.ID,
		CustomerEmail:   payload.Email,
		StartDate:       start,
		NextChargeDate:  line.Product.Subscription.Cycle.NextChargeDate(start),
		Cycle:           line.Product.Subscription.Cycle,
		Price:           line.Pricing.UnitPrice,
		PaymentMethodID: payload.PaymentMethodID,
		Status:          "active",
	}
	if customer != nil {
		sub.CustomerID = customer.ID
	}
	id, err := s.subs.Create(ctx, sub)
	if err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Str("subscription_id", id).Str("order_id", order.ID).Msg("subscription created")
	return nil
}

// createVouchers creates one voucher per purchased unit, all sharing the
// expiry date from the payload.
func (s *CheckoutService) createVouchers(ctx context.Context, order *domain.Order, line *domain.CartLine, lineIdx int, payload domain.CheckoutPayload, customer *domain.Customer) error {
	unitPrice := line.Pricing.Subtotal / float64(line.Quantity)
	for unit := 0; unit < line.Quantity; unit++ {
		v := &domain.Voucher{
			ID:             uuid.New().String(),
			IdempotencyKey: fmt.Sprintf("%s:voucher:%d:%d", order.ID, lineIdx, unit),
			OrderID:        order.ID,
			ProductID:      line.Product.ID,
			Sessions:       line.Product.Sessions,
			Price:          unitPrice,
			ExpiresAt:      *payload.VoucherExpiry,
			Status:         "active",
		}
		if customer != nil {
			v.CustomerID = customer.ID
		}
		if _, err := s.vouchers.Create(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
