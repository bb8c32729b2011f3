package infrastructure

import (
	"context"
	"time"

	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
)

var _ workflow.PaymentGateway = (*SimulatedPaymentGateway)(nil)

// SimulatedPaymentGateway stands in for a real payment provider. Charges at
// or above the decline threshold are rejected, everything else succeeds
// after a configurable processing latency.
type SimulatedPaymentGateway struct {
	declineThreshold models.Money
	latency          time.Duration
}

// NewSimulatedPaymentGateway creates a SimulatedPaymentGateway
func NewSimulatedPaymentGateway(declineThreshold models.Money, latency time.Duration) *SimulatedPaymentGateway {
	return &SimulatedPaymentGateway{
		declineThreshold: declineThreshold,
		latency:          latency,
	}
}

// Charge processes a payment for the order
func (g *SimulatedPaymentGateway) Charge(ctx context.Context, orderID models.ID, amount models.Money) error {
	if g.latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.latency):
		}
	}

	if amount.GreaterOrEqual(g.declineThreshold) {
		return workflow.ErrPaymentDeclined
	}

	logger.Info("payment charged",
		zap.String("order_id", orderID.String()),
		zap.Int64("amount", amount.Amount),
		zap.String("currency", amount.Currency),
	)
	return nil
}
