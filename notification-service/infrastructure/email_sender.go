package infrastructure

import (
	"context"
	"time"

	"github.com/swiftcart/order-system/notification-service/domain"
	"github.com/swiftcart/order-system/shared/logger"
	"go.uber.org/zap"
)

var _ domain.Sender = (*SimulatedEmailSender)(nil)

// SimulatedEmailSender stands in for a mail provider. Every message is
// accepted after a configurable latency and logged instead of delivered.
type SimulatedEmailSender struct {
	latency time.Duration
}

// NewSimulatedEmailSender creates a SimulatedEmailSender
func NewSimulatedEmailSender(latency time.Duration) *SimulatedEmailSender {
	return &SimulatedEmailSender{latency: latency}
}

// Send delivers the notification
func (s *SimulatedEmailSender) Send(ctx context.Context, notification *domain.Notification) error {
	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.latency):
		}
	}

	logger.Info("email sent",
		zap.String("notification_id", notification.ID.String()),
		zap.String("user_id", notification.UserID.String()),
		zap.String("type", notification.Type),
		zap.String("subject", notification.Subject),
	)
	return nil
}
