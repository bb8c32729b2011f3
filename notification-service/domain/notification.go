package domain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// NotificationStatus represents the delivery state of a notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// ErrNotificationNotFound is returned by repositories when no notification matches
var ErrNotificationNotFound = errors.New("notification not found")

// Notification aggregate root. One notification per order lifecycle moment
// per user.
type Notification struct {
	ID         models.ID
	UserID     models.ID
	OrderID    models.ID
	Type       string
	Subject    string
	Body       string
	Status     NotificationStatus
	Timestamps models.Timestamps
	Version    models.Version

	events []*events.Event
}

// CreateNotification factory method
func CreateNotification(userID, orderID models.ID, notificationType, subject, body string) (*Notification, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	if notificationType == "" {
		return nil, errors.New("notification type is required")
	}

	return &Notification{
		ID:         models.GenerateUUID(),
		UserID:     userID,
		OrderID:    orderID,
		Type:       notificationType,
		Subject:    subject,
		Body:       body,
		Status:     NotificationStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// MarkSent records a successful delivery
func (n *Notification) MarkSent() {
	n.Status = NotificationStatusSent
	n.Timestamps = n.Timestamps.Update()
	n.Version = n.Version.Update()

	n.recordEvent(events.NewEvent(n.OrderID, events.NotificationSentEvent, NotificationSentData{
		NotificationID: n.ID,
		UserID:         n.UserID,
		OrderID:        n.OrderID,
		Type:           n.Type,
	}))
}

// MarkFailed records a failed delivery
func (n *Notification) MarkFailed() {
	n.Status = NotificationStatusFailed
	n.Timestamps = n.Timestamps.Update()
	n.Version = n.Version.Update()
}

// Events returns domain events
func (n *Notification) Events() []*events.Event {
	return n.events
}

// ClearEvents clears domain events
func (n *Notification) ClearEvents() {
	n.events = make([]*events.Event, 0)
}

func (n *Notification) recordEvent(event *events.Event) {
	n.events = append(n.events, event)
}

// NotificationSentData is the payload of the notification sent event
type NotificationSentData struct {
	NotificationID models.ID `json:"notification_id"`
	UserID         models.ID `json:"user_id"`
	OrderID        models.ID `json:"order_id"`
	Type           string    `json:"type"`
}

// NotificationRepository interface
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	FindByOrderID(ctx context.Context, orderID models.ID) ([]*Notification, error)
}

// Sender delivers a notification over some channel
type Sender interface {
	Send(ctx context.Context, notification *Notification) error
}
