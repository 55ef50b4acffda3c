package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"vigor/internal/pkg/mq"
	"vigor/internal/service/checkout/domain"
)

// EventKafkaAdapter publishes checkout lifecycle events for downstream
// consumers (confirmation emails, analytics). It also doubles as the
// referral registrar: referral attribution is owned by a separate consumer,
// so registering one here just means publishing the attribution event.
type EventKafkaAdapter struct {
	writer *kafka.Writer
}

func NewEventKafkaAdapter(writer *kafka.Writer) *EventKafkaAdapter {
	return &EventKafkaAdapter{writer: writer}
}

type orderCompletedEvent struct {
	Type            string    `json:"type"`
	OrderID         string    `json:"orderId"`
	InvoiceID       string    `json:"invoiceId"`
	CustomerEmail   string    `json:"customerEmail"`
	PaymentMethodID string    `json:"paymentMethodId"`
	Total           float64   `json:"total"`
	PromoCodeID     string    `json:"promoCodeId,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

type referralRegisteredEvent struct {
	Type            string  `json:"type"`
	Code            string  `json:"code"`
	CustomerEmail   string  `json:"customerEmail"`
	CustomerName    string  `json:"customerName"`
	OrderID         string  `json:"orderId"`
	DiscountApplied float64 `json:"discountApplied"`
}

func (a *EventKafkaAdapter) OrderCompleted(ctx context.Context, o *domain.Order) error {
	event := orderCompletedEvent{
		Type:            "order.completed",
		OrderID:         o.ID,
		InvoiceID:       o.InvoiceID,
		CustomerEmail:   o.CustomerEmail,
		PaymentMethodID: o.PaymentMethodID,
		Total:           o.Totals.Total,
		PromoCodeID:     o.PromoCodeID,
		OccurredAt:      o.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order completed event: %w", err)
	}
	// Keyed by order id so per-order events stay in one partition.
	return mq.ProduceMessage(ctx, a.writer, []byte(o.ID), payload)
}

func (a *EventKafkaAdapter) Register(ctx context.Context, r domain.Referral) error {
	event := referralRegisteredEvent{
		Type:            "referral.registered",
		Code:            r.Code,
		CustomerEmail:   r.CustomerEmail,
		CustomerName:    r.CustomerName,
		OrderID:         r.OrderID,
		DiscountApplied: r.DiscountApplied,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal referral event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(r.OrderID), payload)
}

func (a *EventKafkaAdapter) Close() error {
	return a.writer.Close()
}
