package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ErrOrderNotFound is returned by repositories when no order matches the id
var ErrOrderNotFound = errors.New("order not found")

// OrderItem is a single line of an order
type OrderItem struct {
	ProductID models.ID    `json:"product_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
}

// LineTotal returns quantity * unit price
func (i OrderItem) LineTotal() models.Money {
	return i.UnitPrice.MultiplyInt(i.Quantity)
}

// Order aggregate root
type Order struct {
	ID          models.ID
	UserID      models.ID
	Items       []OrderItem
	TotalAmount models.Money
	Status      OrderStatus
	Timestamps  models.Timestamps
	Version     models.Version

	events []*events.Event
}

// CreateOrder factory method. The total is derived from the items, never
// accepted from the caller.
func CreateOrder(userID models.ID, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}

	total := models.Money{}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, errors.New("item quantity must be positive")
		}
		if !item.UnitPrice.IsPositive() {
			return nil, errors.New("item unit price must be positive")
		}
		if total.Currency == "" {
			total.Currency = item.UnitPrice.Currency
		}
		lineTotal, err := total.Add(item.LineTotal())
		if err != nil {
			return nil, errors.Wrap(err, "failed to total order items")
		}
		total = lineTotal
	}

	order := &Order{
		ID:          models.GenerateUUID(),
		UserID:      userID,
		Items:       items,
		TotalAmount: total,
		Status:      OrderStatusPending,
		Timestamps:  models.NewTimestamps(),
		Version:     models.NewVersion(),
	}

	event := events.NewEvent(order.ID, events.OrderCreatedEvent, OrderCreatedData{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
	})

	order.recordEvent(event)
	return order, nil
}

// Confirm marks the order as confirmed
func (o *Order) Confirm() error {
	if err := o.transitionGuard(OrderStatusConfirmed); err != nil {
		return err
	}

	o.applyStatus(OrderStatusConfirmed)
	o.recordEvent(events.NewEvent(o.ID, events.OrderConfirmedEvent, OrderStatusChangedData{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
	}))
	return nil
}

// MarkProcessing marks the order as processing
func (o *Order) MarkProcessing() error {
	if err := o.transitionGuard(OrderStatusProcessing); err != nil {
		return err
	}

	o.applyStatus(OrderStatusProcessing)
	o.recordEvent(events.NewEvent(o.ID, events.OrderProcessingEvent, OrderStatusChangedData{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
	}))
	return nil
}

// Ship marks the order as shipped
func (o *Order) Ship() error {
	if err := o.transitionGuard(OrderStatusShipped); err != nil {
		return err
	}

	o.applyStatus(OrderStatusShipped)
	o.recordEvent(events.NewEvent(o.ID, events.OrderShippedEvent, OrderStatusChangedData{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		ShippedAt: timePtr(time.Now()),
	}))
	return nil
}

// Deliver marks the order as delivered
func (o *Order) Deliver() error {
	if err := o.transitionGuard(OrderStatusDelivered); err != nil {
		return err
	}

	o.applyStatus(OrderStatusDelivered)
	o.recordEvent(events.NewEvent(o.ID, events.OrderDeliveredEvent, OrderStatusChangedData{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
	}))
	return nil
}

// Cancel marks the order as cancelled
func (o *Order) Cancel(reason string) error {
	if err := o.transitionGuard(OrderStatusCancelled); err != nil {
		return err
	}

	o.applyStatus(OrderStatusCancelled)
	o.recordEvent(events.NewEvent(o.ID, events.OrderCancelledEvent, OrderCancelledData{
		OrderID: o.ID,
		UserID:  o.UserID,
		Reason:  reason,
	}))
	return nil
}

// SetStatus transitions the order to the given status through the matching
// transition method
func (o *Order) SetStatus(status OrderStatus) error {
	switch status {
	case OrderStatusConfirmed:
		return o.Confirm()
	case OrderStatusProcessing:
		return o.MarkProcessing()
	case OrderStatusShipped:
		return o.Ship()
	case OrderStatusDelivered:
		return o.Deliver()
	case OrderStatusCancelled:
		return o.Cancel("")
	default:
		return errors.Errorf("unsupported order status transition: %s", status)
	}
}

// transitionGuard rejects transitions out of terminal states. Concurrent
// admin updates are resolved last-write-wins elsewhere, this only protects
// completed and cancelled orders from being reopened.
func (o *Order) transitionGuard(target OrderStatus) error {
	switch o.Status {
	case OrderStatusCancelled:
		return errors.New("cannot transition a cancelled order")
	case OrderStatusDelivered:
		return errors.New("cannot transition a delivered order")
	case OrderStatusShipped:
		if target != OrderStatusDelivered {
			return errors.Errorf("shipped order can only be delivered, not %s", target)
		}
	}
	return nil
}

func (o *Order) applyStatus(status OrderStatus) {
	o.Status = status
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
}

// Events returns domain events
func (o *Order) Events() []*events.Event {
	return o.events
}

// ClearEvents clears domain events
func (o *Order) ClearEvents() {
	o.events = make([]*events.Event, 0)
}

func (o *Order) recordEvent(event *events.Event) {
	o.events = append(o.events, event)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// Event Data Structures
type OrderCreatedData struct {
	OrderID     models.ID    `json:"order_id"`
	UserID      models.ID    `json:"user_id"`
	Items       []OrderItem  `json:"items"`
	TotalAmount models.Money `json:"total_amount"`
}

type OrderStatusChangedData struct {
	OrderID   models.ID   `json:"order_id"`
	UserID    models.ID   `json:"user_id"`
	Status    OrderStatus `json:"status"`
	ShippedAt *time.Time  `json:"shipped_at,omitempty"`
}

type OrderCancelledData struct {
	OrderID models.ID `json:"order_id"`
	UserID  models.ID `json:"user_id"`
	Reason  string    `json:"reason"`
}

// OrderRepository interface
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	FindByUserID(ctx context.Context, userID models.ID) ([]*Order, error)
}
