// Package workflow implements the durable order processing saga: a
// replayable state machine that validates an order, reserves inventory,
// takes payment behind an optional approval gate and ships, compensating
// reserved stock whenever a later step fails. Execution state lives in a
// Store so an instance survives process restarts and is resumed by
// replaying the recorded step log.
package workflow

import (
	"fmt"
	"time"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// RuntimeStatus represents the lifecycle state of a workflow instance
type RuntimeStatus string

const (
	StatusRunning    RuntimeStatus = "running"
	StatusCompleted  RuntimeStatus = "completed"
	StatusFailed     RuntimeStatus = "failed"
	StatusTerminated RuntimeStatus = "terminated"
)

// OrderProcessingInput is the immutable input of one workflow instance,
// captured from the persisted order when the workflow starts.
type OrderProcessingInput struct {
	OrderID     models.ID          `json:"order_id"`
	UserID      models.ID          `json:"user_id"`
	TotalAmount models.Money       `json:"total_amount"`
	Items       []domain.OrderItem `json:"items"`
}

// OrderProcessingResult is produced exactly once per instance, at the
// terminal state.
type OrderProcessingResult struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	FinalStatus domain.OrderStatus `json:"final_status"`
}

// InventoryReservationInput drives both a reservation and its inverse
// release. Reserved records whether the reservation actually succeeded so
// the release side never credits stock that was never taken.
type InventoryReservationInput struct {
	ProductID models.ID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	OrderID   models.ID `json:"order_id"`
	Reserved  bool      `json:"reserved,omitempty"`
}

// NotificationInput is a best-effort side effect record. The orchestrator
// never fails an instance over it.
type NotificationInput struct {
	OrderID models.ID `json:"order_id"`
	UserID  models.ID `json:"user_id"`
	Type    string    `json:"type"`
}

// Notification types raised by the order workflow
const (
	NotificationOrderConfirmed = "OrderConfirmed"
	NotificationOrderShipped   = "OrderShipped"
	NotificationOrderCancelled = "OrderCancelled"
)

// Instance is one durable execution of the order processing workflow
type Instance struct {
	ID            models.ID              `json:"id"`
	OrderID       models.ID              `json:"order_id"`
	Status        RuntimeStatus          `json:"status"`
	Input         OrderProcessingInput   `json:"input"`
	CreatedAt     time.Time              `json:"created_at"`
	LastUpdatedAt time.Time              `json:"last_updated_at"`
	Output        *OrderProcessingResult `json:"output,omitempty"`
}

// Terminal reports whether the instance reached a terminal runtime status
func (i *Instance) Terminal() bool {
	return i.Status == StatusCompleted || i.Status == StatusFailed || i.Status == StatusTerminated
}

// NewInstanceID derives a unique instance id for an order
func NewInstanceID(orderID models.ID) models.ID {
	return models.ID(fmt.Sprintf("order-processing-%s-%d", orderID, time.Now().UnixNano()))
}

// NewInstance builds a fresh Running instance from a persisted order
func NewInstance(order *domain.Order) *Instance {
	now := time.Now()
	return &Instance{
		ID:      NewInstanceID(order.ID),
		OrderID: order.ID,
		Status:  StatusRunning,
		Input: OrderProcessingInput{
			OrderID:     order.ID,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount,
			Items:       order.Items,
		},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}
