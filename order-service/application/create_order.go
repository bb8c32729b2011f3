package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
)

// WorkflowStarter starts the processing workflow for a persisted order
type WorkflowStarter interface {
	StartWorkflow(ctx context.Context, orderID models.ID) (*workflow.Instance, error)
}

// CreateOrderItem is one order line in the create command
type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Currency  string `json:"currency"`
}

// CreateOrderCommand represents the command to create an order
type CreateOrderCommand struct {
	UserID string            `json:"user_id"`
	Items  []CreateOrderItem `json:"items"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID    string `json:"order_id"`
	InstanceID string `json:"workflow_instance_id"`
	Status     string `json:"status"`
}

// CreateOrder use case: persists the order and starts its processing
// workflow
type CreateOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	workflows       WorkflowStarter
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	orderRepository domain.OrderRepository,
	eventPublisher events.Publisher,
	workflows WorkflowStarter,
) *CreateOrder {
	return &CreateOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		workflows:       workflows,
	}
}

// Execute executes the create order use case
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	userID, err := models.NewID(cmd.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		productID, err := models.NewID(item.ProductID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid product ID at item %d", i)
		}
		items[i] = domain.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: models.NewMoney(item.UnitPrice, item.Currency),
		}
	}

	order, err := domain.CreateOrder(userID, items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	if err := uc.eventPublisher.Publish(ctx, order.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	order.ClearEvents()

	instance, err := uc.workflows.StartWorkflow(ctx, order.ID)
	if err != nil {
		// The order exists, processing can be restarted later
		logger.Error("failed to start order processing workflow",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "failed to start order processing")
	}

	return &CreateOrderResponse{
		OrderID:    order.ID.String(),
		InstanceID: instance.ID.String(),
		Status:     string(order.Status),
	}, nil
}

func (uc *CreateOrder) validateCommand(cmd *CreateOrderCommand) error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}

	if len(cmd.Items) == 0 {
		return errors.New("order must contain at least one item")
	}

	for i, item := range cmd.Items {
		if item.ProductID == "" {
			return errors.Errorf("product ID is required at item %d", i)
		}
		if item.Quantity <= 0 {
			return errors.Errorf("quantity must be positive at item %d", i)
		}
		if item.UnitPrice <= 0 {
			return errors.Errorf("unit price must be positive at item %d", i)
		}
		if item.Currency == "" {
			return errors.Errorf("currency is required at item %d", i)
		}
	}

	return nil
}
