package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all repository implementations.
var (
	ErrPromoNotFound    = errors.New("promo code not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrOrderNotFound    = errors.New("order not found")

	// ErrProductUnavailable marks products that exist but cannot be sold.
	ErrProductUnavailable = errors.New("product is not available")
	ErrDuplicateCode    = errors.New("a promo code with that code already exists")
)

// ProductRepository is the catalog the engine prices against. The UI
// collaborators own product administration; the engine only reads.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
}

// PromoCodeRepository persists promo codes. Implemented by the in-memory
// store and by GORM; the engine depends only on this interface, never on
// module-level state.
type PromoCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	Create(ctx context.Context, pc *PromoCode) error
	Update(ctx context.Context, pc *PromoCode) error
	// IncrementUsage bumps the persisted usage counter; it is never
	// decremented.
	IncrementUsage(ctx context.Context, id string) error
}

// PromoUsageStore answers the cap questions during validation and records
// redemptions. Kept separate from the code repository so a distributed
// deployment can back it with Redis counters.
type PromoUsageStore interface {
	TotalUses(ctx context.Context, codeID string) (int, error)
	CustomerUses(ctx context.Context, codeID, customerEmail string) (int, error)
	RecordUse(ctx context.Context, codeID, customerEmail string) error
}

// OfferRepository serves the special offers live for a product.
type OfferRepository interface {
	ActiveForProduct(ctx context.Context, productID string, now time.Time) ([]*SpecialOffer, error)
}

// Customer is the minimal record the side-effect steps need.
type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// CustomerRepository resolves or creates customers for side effects.
type CustomerRepository interface {
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, c *Customer) (*Customer, error)
}

// Subscription is the recurring-billing record created per subscription line.
type Subscription struct {
	ID string
	// IdempotencyKey is derived from the order id and line index so a
	// retried checkout never creates a duplicate.
	IdempotencyKey  string
	OrderID         string
	ProductID       string
	CustomerID      string
	CustomerEmail   string
	StartDate       time.Time
	NextChargeDate  time.Time
	Cycle           BillingCycle
	Price           float64
	PaymentMethodID string
	Status          string
}

// SubscriptionRepository creates subscription records. Create must treat a
// duplicate idempotency key as success with the existing record's id.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) (string, error)
}

// Voucher is a prepaid session bundle, one record per purchased unit.
type Voucher struct {
	ID             string
	IdempotencyKey string
	OrderID        string
	CustomerID     string
	ProductID      string
	Sessions       int
	Price          float64
	ExpiresAt      time.Time
	Status         string
}

// VoucherRepository creates voucher records with the same idempotency
// contract as subscriptions.
type VoucherRepository interface {
	Create(ctx context.Context, v *Voucher) (string, error)
}

// Referral is the attribution registered when a referral code was used.
type Referral struct {
	Code            string
	CustomerEmail   string
	CustomerName    string
	OrderID         string
	DiscountApplied float64
}

// ReferralRegistrar registers referral attributions. Best-effort only.
type ReferralRegistrar interface {
	Register(ctx context.Context, r Referral) error
}

// OrderRepository persists completed orders.
type OrderRepository interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
}

// PaymentProcessor is the (simulated) payment step. A non-nil error fails
// the checkout; it is the only post-gate step allowed to.
type PaymentProcessor interface {
	Charge(ctx context.Context, orderID string, amount float64, paymentMethodID string) error
}

// EventProducer publishes checkout lifecycle events for downstream
// consumers (notifications, analytics).
type EventProducer interface {
	OrderCompleted(ctx context.Context, o *Order) error
}
