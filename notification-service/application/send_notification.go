package application

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/notification-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
)

// SendNotificationCommand represents a notification request raised by the
// order workflow
type SendNotificationCommand struct {
	OrderID models.ID `json:"order_id"`
	UserID  models.ID `json:"user_id"`
	Type    string    `json:"type"`
}

// SendNotification use case: renders, persists and delivers one
// notification, then announces the delivery.
type SendNotification struct {
	notificationRepository domain.NotificationRepository
	sender                 domain.Sender
	eventPublisher         events.Publisher
}

// NewSendNotification creates a new SendNotification use case
func NewSendNotification(
	notificationRepository domain.NotificationRepository,
	sender domain.Sender,
	eventPublisher events.Publisher,
) *SendNotification {
	return &SendNotification{
		notificationRepository: notificationRepository,
		sender:                 sender,
		eventPublisher:         eventPublisher,
	}
}

// Execute executes the send notification use case
func (uc *SendNotification) Execute(ctx context.Context, cmd *SendNotificationCommand) error {
	subject, body := renderTemplate(cmd.Type, cmd.OrderID)

	notification, err := domain.CreateNotification(cmd.UserID, cmd.OrderID, cmd.Type, subject, body)
	if err != nil {
		return errors.Wrap(err, "failed to create notification")
	}

	if err := uc.notificationRepository.Save(ctx, notification); err != nil {
		return errors.Wrap(err, "failed to save notification")
	}

	if err := uc.sender.Send(ctx, notification); err != nil {
		logger.Warn("notification delivery failed",
			zap.String("notification_id", notification.ID.String()),
			zap.String("order_id", cmd.OrderID.String()),
			zap.Error(err),
		)
		notification.MarkFailed()
		if saveErr := uc.notificationRepository.Save(ctx, notification); saveErr != nil {
			return errors.Wrap(saveErr, "failed to record delivery failure")
		}
		return nil
	}

	notification.MarkSent()
	if err := uc.notificationRepository.Save(ctx, notification); err != nil {
		return errors.Wrap(err, "failed to record delivery")
	}

	if err := uc.eventPublisher.Publish(ctx, notification.Events()...); err != nil {
		logger.Warn("failed to publish notification sent event",
			zap.String("notification_id", notification.ID.String()),
			zap.Error(err),
		)
	}
	notification.ClearEvents()

	return nil
}

func renderTemplate(notificationType string, orderID models.ID) (subject, body string) {
	switch notificationType {
	case "OrderConfirmed":
		return "Your order is confirmed",
			fmt.Sprintf("Order %s has been confirmed and is being prepared.", orderID)
	case "OrderShipped":
		return "Your order has shipped",
			fmt.Sprintf("Order %s is on its way.", orderID)
	case "OrderCancelled":
		return "Your order was cancelled",
			fmt.Sprintf("Order %s could not be completed and has been cancelled.", orderID)
	default:
		return "Order update",
			fmt.Sprintf("There is an update for order %s.", orderID)
	}
}
