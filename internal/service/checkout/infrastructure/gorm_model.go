package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// PromoCodeModel maps to the promo_code table. Scope lists are stored as
// comma-joined strings; the mapper splits them back out.
type PromoCodeModel struct {
	gorm.Model
	CodeID             string `gorm:"uniqueIndex;column:code_id"`
	Code               string `gorm:"uniqueIndex"`
	Type               string
	Value              float64 `gorm:"type:decimal(10,2)"`
	StartDate          *time.Time
	EndDate            *time.Time
	MaxTotalUses       *int
	MaxUsesPerCustomer *int
	MinPurchase        *float64 `gorm:"type:decimal(10,2)"`
	ProductIDs         string   `gorm:"type:text"`
	Categories         string   `gorm:"type:text"`
	Active             bool     `gorm:"default:true"`
	UsageCount         int
}

func (PromoCodeModel) TableName() string {
	return "promo_code"
}

// SubscriptionModel maps to the subscription table. The unique idempotency
// key is what makes retried checkouts safe at this layer.
type SubscriptionModel struct {
	gorm.Model
	SubscriptionID  string `gorm:"uniqueIndex;column:subscription_id"`
	IdempotencyKey  string `gorm:"uniqueIndex"`
	OrderID         string `gorm:"index"`
	ProductID       string
	CustomerID      string
	CustomerEmail   string `gorm:"index"`
	StartDate       time.Time
	NextChargeDate  time.Time
	Cycle           string
	Price           float64 `gorm:"type:decimal(10,2)"`
	PaymentMethodID string
	Status          string
}

func (SubscriptionModel) TableName() string {
	return "subscription"
}

// VoucherModel maps to the voucher table, one row per purchased unit.
type VoucherModel struct {
	gorm.Model
	VoucherID      string `gorm:"uniqueIndex;column:voucher_id"`
	IdempotencyKey string `gorm:"uniqueIndex"`
	OrderID        string `gorm:"index"`
	CustomerID     string
	ProductID      string
	Sessions       int
	Price          float64 `gorm:"type:decimal(10,2)"`
	ExpiresAt      time.Time
	Status         string
}

func (VoucherModel) TableName() string {
	return "voucher"
}

// CustomerModel maps to the customer table.
type CustomerModel struct {
	gorm.Model
	CustomerID string `gorm:"uniqueIndex;column:customer_id"`
	Name       string
	Email      string `gorm:"uniqueIndex"`
	Phone      string
}

func (CustomerModel) TableName() string {
	return "customer"
}

// OrderModel maps to the checkout_order table. Lines and the installment
// schedule are stored as JSON blobs; the engine never queries inside them.
type OrderModel struct {
	gorm.Model
	OrderID         string `gorm:"uniqueIndex;column:order_id"`
	InvoiceID       string `gorm:"uniqueIndex"`
	CustomerName    string
	CustomerEmail   string `gorm:"index"`
	CustomerPhone   string
	PaymentMethodID string
	PromoCodeID     string
	ReferralCode    string
	Subtotal        float64 `gorm:"type:decimal(10,2)"`
	LoyaltyDiscount float64 `gorm:"type:decimal(10,2)"`
	PromoDiscount   float64 `gorm:"type:decimal(10,2)"`
	Tax             float64 `gorm:"type:decimal(10,2)"`
	Shipping        float64 `gorm:"type:decimal(10,2)"`
	Total           float64 `gorm:"type:decimal(10,2)"`
	Lines           string  `gorm:"type:text"`
	Installments    string  `gorm:"type:text"`
	State           string
	PlacedAt        time.Time
}

func (OrderModel) TableName() string {
	return "checkout_order"
}
