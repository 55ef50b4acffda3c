package adapter

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"vigor/internal/pkg/logger"
	"vigor/internal/service/checkout/domain"
)

// PaymentSimulator stands in for the real payment gateway. It sleeps for a
// fixed latency and approves everything except amounts below one cent.
type PaymentSimulator struct {
	Latency time.Duration
}

func NewPaymentSimulator() *PaymentSimulator {
	return &PaymentSimulator{Latency: 150 * time.Millisecond}
}

func (p *PaymentSimulator) Charge(ctx context.Context, orderID string, amount float64, paymentMethodID string) error {
	if amount < 0.01 {
		return errors.Errorf("invalid charge amount %.2f for order %s", amount, orderID)
	}
	if _, ok := domain.PaymentMethodByID(paymentMethodID); !ok {
		return errors.Errorf("unknown payment method %s", paymentMethodID)
	}

	select {
	case <-time.After(p.Latency):
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "payment cancelled")
	}

	logger.Ctx(ctx).Info().
		Str("order_id", orderID).
		Str("payment_method", paymentMethodID).
		Float64("amount", amount).
		Msg("payment captured")
	return nil
}
