package infrastructure

import (
	"encoding/json"
	"strings"

	"vigor/internal/service/checkout/domain"
)

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// ToDomainPromoCode converts a database row to the domain promo code.
func ToDomainPromoCode(m *PromoCodeModel) *domain.PromoCode {
	return &domain.PromoCode{
		ID:                 m.CodeID,
		Code:               m.Code,
		Type:               domain.DiscountType(m.Type),
		Value:              m.Value,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		MaxTotalUses:       m.MaxTotalUses,
		MaxUsesPerCustomer: m.MaxUsesPerCustomer,
		MinPurchase:        m.MinPurchase,
		ProductIDs:         splitList(m.ProductIDs),
		Categories:         splitList(m.Categories),
		Active:             m.Active,
		UsageCount:         m.UsageCount,
	}
}

// ToPromoCodeModel converts a domain promo code to its database row.
func ToPromoCodeModel(pc *domain.PromoCode) *PromoCodeModel {
	return &PromoCodeModel{
		CodeID:             pc.ID,
		Code:               pc.Code,
		Type:               string(pc.Type),
		Value:              pc.Value,
		StartDate:          pc.StartDate,
		EndDate:            pc.EndDate,
		MaxTotalUses:       pc.MaxTotalUses,
		MaxUsesPerCustomer: pc.MaxUsesPerCustomer,
		MinPurchase:        pc.MinPurchase,
		ProductIDs:         joinList(pc.ProductIDs),
		Categories:         joinList(pc.Categories),
		Active:             pc.Active,
		UsageCount:         pc.UsageCount,
	}
}

func ToSubscriptionModel(s *domain.Subscription) *SubscriptionModel {
	return &SubscriptionModel{
		SubscriptionID:  s.ID,
		IdempotencyKey:  s.IdempotencyKey,
		OrderID:         s.OrderID,
		ProductID:       s.ProductID,
		CustomerID:      s.CustomerID,
		CustomerEmail:   s.CustomerEmail,
		StartDate:       s.StartDate,
		NextChargeDate:  s.NextChargeDate,
		Cycle:           string(s.Cycle),
		Price:           s.Price,
		PaymentMethodID: s.PaymentMethodID,
		Status:          s.Status,
	}
}

func ToVoucherModel(v *domain.Voucher) *VoucherModel {
	return &VoucherModel{
		VoucherID:      v.ID,
		IdempotencyKey: v.IdempotencyKey,
		OrderID:        v.OrderID,
		CustomerID:     v.CustomerID,
		ProductID:      v.ProductID,
		Sessions:       v.Sessions,
		Price:          v.Price,
		ExpiresAt:      v.ExpiresAt,
		Status:         v.Status,
	}
}

func ToDomainCustomer(m *CustomerModel) *domain.Customer {
	return &domain.Customer{
		ID:    m.CustomerID,
		Name:  m.Name,
		Email: m.Email,
		Phone: m.Phone,
	}
}

// ToOrderModel flattens the order for storage. Marshal failures on the JSON
// blobs are impossible for these types, so errors are swallowed here.
func ToOrderModel(o *domain.Order) *OrderModel {
	lines, _ := json.Marshal(o.Lines)
	installments, _ := json.Marshal(o.InstallmentSchedule)
	return &OrderModel{
		OrderID:         o.ID,
		InvoiceID:       o.InvoiceID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		PaymentMethodID: o.PaymentMethodID,
		PromoCodeID:     o.PromoCodeID,
		ReferralCode:    o.ReferralCode,
		Subtotal:        o.Totals.Subtotal,
		LoyaltyDiscount: o.Totals.LoyaltyDiscount,
		PromoDiscount:   o.Totals.PromoDiscount,
		Tax:             o.Totals.Tax,
		Shipping:        o.Totals.Shipping,
		Total:           o.Totals.Total,
		Lines:           string(lines),
		Installments:    string(installments),
		State:           string(o.State),
		PlacedAt:        o.CreatedAt,
	}
}

// ToDomainOrder restores an order from its row.
func ToDomainOrder(m *OrderModel) *domain.Order {
	o := &domain.Order{
		ID:              m.OrderID,
		InvoiceID:       m.InvoiceID,
		CustomerName:    m.CustomerName,
		CustomerEmail:   m.CustomerEmail,
		CustomerPhone:   m.CustomerPhone,
		PaymentMethodID: m.PaymentMethodID,
		PromoCodeID:     m.PromoCodeID,
		ReferralCode:    m.ReferralCode,
		Totals: domain.Totals{
			Subtotal:        m.Subtotal,
			LoyaltyDiscount: m.LoyaltyDiscount,
			PromoDiscount:   m.PromoDiscount,
			Tax:             m.Tax,
			Shipping:        m.Shipping,
			Total:           m.Total,
		},
		State:     domain.AttemptState(m.State),
		CreatedAt: m.PlacedAt,
	}
	_ = json.Unmarshal([]byte(m.Lines), &o.Lines)
	_ = json.Unmarshal([]byte(m.Installments), &o.InstallmentSchedule)
	return o
}
