package domain

import (
	"errors"
	"strings"
	"time"
)

// DiscountType selects how a promo code's value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PromoCode is a redeemable discount token with eligibility and usage
// constraints. Codes are stored upper-cased; lookups are case-insensitive.
// The usage counter moves in one direction only: incremented exactly once
// per successful redemption, never decremented. Codes can be deactivated by
// an administrator; expiry is evaluated against the validity window at
// validation time, never baked in at creation.
type PromoCode struct {
	ID    string
	Code  string
	Type  DiscountType
	Value float64

	StartDate *time.Time
	EndDate   *time.Time

	MaxTotalUses       *int
	MaxUsesPerCustomer *int
	MinPurchase        *float64

	// Eligibility restrictions; empty means unrestricted.
	ProductIDs []string
	Categories []string

	Active     bool
	UsageCount int
}

// CanonicalCode upper-cases a raw user-entered code.
func CanonicalCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// DiscountOn computes the discount this code grants on a subtotal. A fixed
// discount is capped at the subtotal so the net amount never goes negative.
func (pc *PromoCode) DiscountOn(subtotal float64) float64 {
	var discount float64
	if pc.Type == DiscountPercentage {
		discount = subtotal * pc.Value / 100
	} else {
		discount = pc.Value
		if discount > subtotal {
			discount = subtotal
		}
	}
	return clampMoney(discount)
}

var (
	ErrPromoCodeEmpty     = errors.New("promo code must not be empty")
	ErrPromoValueRange    = errors.New("percentage discount must be between 0 and 100")
	ErrPromoValueNegative = errors.New("fixed discount must be >= 0")
	ErrPromoWindow        = errors.New("validity end must be after validity start")
)

// CheckInvariants enforces the administrative creation/update rules.
func (pc *PromoCode) CheckInvariants() error {
	if CanonicalCode(pc.Code) == "" {
		return ErrPromoCodeEmpty
	}
	switch pc.Type {
	case DiscountPercentage:
		if pc.Value < 0 || pc.Value > 100 {
			return ErrPromoValueRange
		}
	case DiscountFixed:
		if pc.Value < 0 {
			return ErrPromoValueNegative
		}
	default:
		return errors.New("unknown discount type: " + string(pc.Type))
	}
	if pc.StartDate != nil && pc.EndDate != nil && !pc.EndDate.After(*pc.StartDate) {
		return ErrPromoWindow
	}
	return nil
}

// RejectionKind enumerates why a promo code was refused, in the order the
// checks run. The order is part of the contract: validation short-circuits
// on the first failure so error messages stay deterministic.
type RejectionKind string

const (
	RejectionNone                RejectionKind = ""
	RejectionNotFound            RejectionKind = "NOT_FOUND"
	RejectionInactive            RejectionKind = "INACTIVE"
	RejectionNotYetValid         RejectionKind = "NOT_YET_VALID"
	RejectionExpired             RejectionKind = "EXPIRED"
	RejectionGlobalCapReached    RejectionKind = "GLOBAL_CAP_REACHED"
	RejectionCustomerCapReached  RejectionKind = "CUSTOMER_CAP_REACHED"
	RejectionBelowMinimum        RejectionKind = "BELOW_MINIMUM"
	RejectionProductNotEligible  RejectionKind = "PRODUCT_NOT_ELIGIBLE"
	RejectionCategoryNotEligible RejectionKind = "CATEGORY_NOT_ELIGIBLE"
)

var rejectionMessages = map[RejectionKind]string{
	RejectionNotFound:            "promo code not found",
	RejectionInactive:            "promo code is no longer active",
	RejectionNotYetValid:         "promo code is not valid yet",
	RejectionExpired:             "promo code has expired",
	RejectionGlobalCapReached:    "promo code has reached its usage limit",
	RejectionCustomerCapReached:  "you have reached the usage limit for this promo code",
	RejectionBelowMinimum:        "cart does not reach the minimum purchase for this promo code",
	RejectionProductNotEligible:  "promo code does not apply to any product in the cart",
	RejectionCategoryNotEligible: "promo code does not apply to any category in the cart",
}

// Message returns the user-displayable reason for a rejection kind.
func (k RejectionKind) Message() string {
	return rejectionMessages[k]
}

// Validation is the discriminated result of validating a code against a
// cart. Rejections are values for the caller to render, never errors.
type Validation struct {
	Valid bool
	Code  *PromoCode
	Kind  RejectionKind
}

// Reject builds a failed validation.
func Reject(kind RejectionKind) Validation {
	return Validation{Kind: kind}
}
