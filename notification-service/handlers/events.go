package handlers

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/notification-service/application"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/logger"
	"go.uber.org/zap"
)

// NotificationEventHandlers routes queue events by topic pattern. The first
// matching route wins; unmatched events are acknowledged and dropped.
type NotificationEventHandlers struct {
	routes []route
}

type route struct {
	pattern events.Topic
	handle  func(ctx context.Context, event *events.Event) error
}

// NewNotificationEventHandlers creates new notification event handlers
func NewNotificationEventHandlers(sendNotification *application.SendNotification) *NotificationEventHandlers {
	h := &NotificationEventHandlers{}

	h.routes = []route{
		{
			pattern: events.NotificationRequestedEvent,
			handle:  h.handleNotificationRequested(sendNotification),
		},
		{
			pattern: "order.#",
			handle:  h.handleOrderLifecycle,
		},
	}

	return h
}

// HandlerID returns the unique identifier for this event handler
func (h *NotificationEventHandlers) HandlerID() string {
	return "notification-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *NotificationEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	for _, r := range h.routes {
		if event.Topic.Matches(r.pattern) {
			return r.handle(ctx, event)
		}
	}
	return nil
}

func (h *NotificationEventHandlers) handleNotificationRequested(uc *application.SendNotification) func(ctx context.Context, event *events.Event) error {
	return func(ctx context.Context, event *events.Event) error {
		var cmd application.SendNotificationCommand
		if err := parseEventData(event, &cmd); err != nil {
			return errors.Wrap(err, "failed to parse notification request")
		}

		if err := uc.Execute(ctx, &cmd); err != nil {
			logger.Error("failed to send notification",
				zap.String("order_id", cmd.OrderID.String()),
				zap.String("type", cmd.Type),
				zap.Error(err),
			)
			// Acknowledge anyway, notifications are best effort
			return nil
		}
		return nil
	}
}

// handleOrderLifecycle keeps an activity trace of every order event the
// queue delivers. Useful when reconstructing what a customer was told.
func (h *NotificationEventHandlers) handleOrderLifecycle(_ context.Context, event *events.Event) error {
	logger.Info("order lifecycle event observed",
		zap.String("topic", event.Topic.String()),
		zap.String("aggregate_id", event.AggregateID.String()),
		zap.String("correlation_id", event.CorrelationID.String()),
	)
	return nil
}

// parseEventData parses event data into the specified struct
func parseEventData(event *events.Event, target interface{}) error {
	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event data")
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return errors.Wrap(err, "failed to unmarshal event data")
	}

	return nil
}
