package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// GetOrderQuery represents the query to get an order
type GetOrderQuery struct {
	OrderID string `json:"order_id"`
}

// OrderItemResponse is one order line in a read response
type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

// GetOrderResponse represents the order read model
type GetOrderResponse struct {
	OrderID     string              `json:"order_id"`
	UserID      string              `json:"user_id"`
	Items       []OrderItemResponse `json:"items"`
	TotalAmount int64               `json:"total_amount"`
	Currency    string              `json:"currency"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// GetOrder use case
type GetOrder struct {
	orderRepository domain.OrderRepository
}

// NewGetOrder creates a new GetOrder use case
func NewGetOrder(orderRepository domain.OrderRepository) *GetOrder {
	return &GetOrder{orderRepository: orderRepository}
}

// Execute executes the get order use case
func (uc *GetOrder) Execute(ctx context.Context, query *GetOrderQuery) (*GetOrderResponse, error) {
	orderID, err := models.NewID(query.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Amount,
			LineTotal: item.LineTotal().Amount,
		}
	}

	return &GetOrderResponse{
		OrderID:     order.ID.String(),
		UserID:      order.UserID.String(),
		Items:       items,
		TotalAmount: order.TotalAmount.Amount,
		Currency:    order.TotalAmount.Currency,
		Status:      string(order.Status),
		CreatedAt:   order.Timestamps.CreatedAt,
		UpdatedAt:   order.Timestamps.UpdatedAt,
	}, nil
}
