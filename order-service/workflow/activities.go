package workflow

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned by collaborator clients when the entity does not
// exist, as opposed to the collaborator being unreachable.
var ErrNotFound = errors.New("entity not found")

// ErrPaymentDeclined is returned by payment gateways when the charge was
// processed and rejected. Transport failures return ordinary errors.
var ErrPaymentDeclined = errors.New("payment declined")

// User is the projection of a user the workflow cares about
type User struct {
	ID     models.ID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Active bool      `json:"active"`
}

// Product is the projection of a catalog product the workflow cares about
type Product struct {
	ID     models.ID    `json:"id"`
	Name   string       `json:"name"`
	Price  models.Money `json:"price"`
	Stock  int          `json:"stock"`
	Active bool         `json:"active"`
}

// StockCheck is the result of a stock availability check
type StockCheck struct {
	Available    bool `json:"available"`
	CurrentStock int  `json:"current_stock"`
}

// StockUpdate is the result of a stock adjustment. A negative delta
// reserves stock, a positive delta releases it.
type StockUpdate struct {
	Success  bool `json:"success"`
	NewStock int  `json:"new_stock"`
}

// UserDirectory exposes the user service to the workflow
type UserDirectory interface {
	GetUser(ctx context.Context, userID models.ID) (*User, error)
}

// ProductCatalog exposes the product service to the workflow
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID models.ID) (*Product, error)
	CheckStock(ctx context.Context, productID models.ID, quantity int) (*StockCheck, error)
	UpdateStock(ctx context.Context, productID models.ID, delta int) (*StockUpdate, error)
}

// PaymentGateway charges an order amount
type PaymentGateway interface {
	Charge(ctx context.Context, orderID models.ID, amount models.Money) error
}

// ShippingProvider hands an order to a carrier and returns a tracking number
type ShippingProvider interface {
	Ship(ctx context.Context, orderID models.ID) (string, error)
}

// ValidationPolicy decides how order validation treats unreachable
// collaborators: strict fails closed, permissive treats the check as
// advisory and lets the order through.
type ValidationPolicy string

const (
	ValidationStrict     ValidationPolicy = "strict"
	ValidationPermissive ValidationPolicy = "permissive"
)

// Activities are the atomic steps of the order workflow. Transient-failure
// retries belong to the runtime (see Execute), not to the activities.
type Activities struct {
	users     UserDirectory
	catalog   ProductCatalog
	orders    domain.OrderRepository
	publisher events.Publisher
	gateway   PaymentGateway
	shipper   ShippingProvider

	validationPolicy ValidationPolicy
}

// NewActivities creates the activity set used by the orchestrator
func NewActivities(
	users UserDirectory,
	catalog ProductCatalog,
	orders domain.OrderRepository,
	publisher events.Publisher,
	gateway PaymentGateway,
	shipper ShippingProvider,
	validationPolicy ValidationPolicy,
) *Activities {
	if validationPolicy == "" {
		validationPolicy = ValidationStrict
	}
	return &Activities{
		users:            users,
		catalog:          catalog,
		orders:           orders,
		publisher:        publisher,
		gateway:          gateway,
		shipper:          shipper,
		validationPolicy: validationPolicy,
	}
}

// ValidateOrder checks the order against the user directory and the
// product catalog. Business rule violations and missing entities fail the
// validation; unreachable collaborators follow the validation policy.
// Always returns a nil error: an invalid order is a result, not a failure.
func (a *Activities) ValidateOrder(ctx context.Context, input OrderProcessingInput) (bool, error) {
	if len(input.Items) == 0 {
		logger.Info("order rejected: no items", zap.String("order_id", input.OrderID.String()))
		return false, nil
	}

	if !input.TotalAmount.IsPositive() {
		logger.Info("order rejected: non-positive total",
			zap.String("order_id", input.OrderID.String()),
			zap.Int64("amount", input.TotalAmount.Amount),
		)
		return false, nil
	}

	user, err := a.users.GetUser(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Info("order rejected: user not found",
				zap.String("order_id", input.OrderID.String()),
				zap.String("user_id", input.UserID.String()),
			)
			return false, nil
		}
		if !a.collaboratorFailurePasses("user directory", input.OrderID, err) {
			return false, nil
		}
	} else if !user.Active {
		logger.Info("order rejected: user inactive",
			zap.String("order_id", input.OrderID.String()),
			zap.String("user_id", input.UserID.String()),
		)
		return false, nil
	}

	for _, item := range input.Items {
		if item.Quantity <= 0 || !item.LineTotal().IsPositive() {
			logger.Info("order rejected: invalid line item",
				zap.String("order_id", input.OrderID.String()),
				zap.String("product_id", item.ProductID.String()),
			)
			return false, nil
		}

		product, err := a.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				logger.Info("order rejected: product not found",
					zap.String("order_id", input.OrderID.String()),
					zap.String("product_id", item.ProductID.String()),
				)
				return false, nil
			}
			if !a.collaboratorFailurePasses("product catalog", input.OrderID, err) {
				return false, nil
			}
			continue
		}

		if !product.Active {
			logger.Info("order rejected: product inactive",
				zap.String("order_id", input.OrderID.String()),
				zap.String("product_id", item.ProductID.String()),
			)
			return false, nil
		}

		check, err := a.catalog.CheckStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			if !a.collaboratorFailurePasses("product catalog", input.OrderID, err) {
				return false, nil
			}
			continue
		}
		if !check.Available {
			logger.Info("order rejected: stock unavailable",
				zap.String("order_id", input.OrderID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int("requested", item.Quantity),
				zap.Int("current_stock", check.CurrentStock),
			)
			return false, nil
		}
	}

	return true, nil
}

// collaboratorFailurePasses applies the validation policy to an
// unreachable collaborator and reports whether validation may proceed
func (a *Activities) collaboratorFailurePasses(collaborator string, orderID models.ID, err error) bool {
	if a.validationPolicy == ValidationPermissive {
		logger.Warn("collaborator unreachable, passing validation per permissive policy",
			zap.String("collaborator", collaborator),
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return true
	}
	logger.Warn("collaborator unreachable, failing validation per strict policy",
		zap.String("collaborator", collaborator),
		zap.String("order_id", orderID.String()),
		zap.Error(err),
	)
	return false
}

// ReserveInventory takes stock for one order line. Any failure reports
// false so the orchestrator can compensate the whole fan-out; the error
// itself is swallowed here.
func (a *Activities) ReserveInventory(ctx context.Context, input InventoryReservationInput) (bool, error) {
	update, err := a.catalog.UpdateStock(ctx, input.ProductID, -input.Quantity)
	if err != nil {
		logger.Warn("inventory reservation failed",
			zap.String("order_id", input.OrderID.String()),
			zap.String("product_id", input.ProductID.String()),
			zap.Int("quantity", input.Quantity),
			zap.Error(err),
		)
		return false, nil
	}
	if !update.Success {
		logger.Info("inventory reservation rejected",
			zap.String("order_id", input.OrderID.String()),
			zap.String("product_id", input.ProductID.String()),
			zap.Int("quantity", input.Quantity),
			zap.Int("current_stock", update.NewStock),
		)
		return false, nil
	}
	return true, nil
}

// ReleaseInventory is the compensation of ReserveInventory. It is issued
// for every line of the order; lines whose reservation never succeeded are
// skipped so stock is not over-credited. At-least-once semantics: a failed
// release is logged and reported, never escalated.
func (a *Activities) ReleaseInventory(ctx context.Context, input InventoryReservationInput) (bool, error) {
	if !input.Reserved {
		logger.Debug("skipping release for unreserved item",
			zap.String("order_id", input.OrderID.String()),
			zap.String("product_id", input.ProductID.String()),
		)
		return true, nil
	}

	update, err := a.catalog.UpdateStock(ctx, input.ProductID, input.Quantity)
	if err != nil {
		logger.Error("inventory release failed",
			zap.String("order_id", input.OrderID.String()),
			zap.String("product_id", input.ProductID.String()),
			zap.Int("quantity", input.Quantity),
			zap.Error(err),
		)
		return false, nil
	}
	if !update.Success {
		logger.Error("inventory release rejected",
			zap.String("order_id", input.OrderID.String()),
			zap.String("product_id", input.ProductID.String()),
		)
		return false, nil
	}
	return true, nil
}

// ProcessPayment charges the order total. A decline is a business result
// (false); transport failures bubble up for the runtime to retry.
func (a *Activities) ProcessPayment(ctx context.Context, input OrderProcessingInput) (bool, error) {
	if err := a.gateway.Charge(ctx, input.OrderID, input.TotalAmount); err != nil {
		if errors.Is(err, ErrPaymentDeclined) {
			logger.Info("payment declined",
				zap.String("order_id", input.OrderID.String()),
				zap.Int64("amount", input.TotalAmount.Amount),
			)
			return false, nil
		}
		return false, errors.Wrap(err, "payment gateway call failed")
	}
	return true, nil
}

// UpdateOrderStatus is the single authoritative write of the order status.
// Returns false when the order does not exist.
func (a *Activities) UpdateOrderStatus(ctx context.Context, orderID models.ID, status domain.OrderStatus) (bool, error) {
	order, err := a.orders.FindByID(ctx, orderID)
	if err != nil {
		return false, errors.Wrap(err, "failed to load order")
	}
	if order == nil {
		logger.Warn("cannot update status of missing order",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(status)),
		)
		return false, nil
	}

	if err := order.SetStatus(status); err != nil {
		logger.Warn("order status transition rejected",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return false, nil
	}

	if err := a.orders.Save(ctx, order); err != nil {
		return false, errors.Wrap(err, "failed to save order status")
	}

	if err := a.publisher.Publish(ctx, order.Events()...); err != nil {
		logger.Warn("failed to publish order status events",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}
	order.ClearEvents()

	return true, nil
}

// SendNotification publishes a notification request. Best effort: failures
// are logged and reported as false, they never fail the workflow.
func (a *Activities) SendNotification(ctx context.Context, input NotificationInput) (bool, error) {
	event := events.NewEvent(input.OrderID, events.NotificationRequestedEvent, input).
		WithCorrelationID(input.OrderID)

	if err := a.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish notification request",
			zap.String("order_id", input.OrderID.String()),
			zap.String("type", input.Type),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

// ProcessShipping hands the order to the shipping provider
func (a *Activities) ProcessShipping(ctx context.Context, input OrderProcessingInput) (bool, error) {
	trackingID, err := a.shipper.Ship(ctx, input.OrderID)
	if err != nil {
		return false, errors.Wrap(err, "shipping provider call failed")
	}

	logger.Info("order handed to carrier",
		zap.String("order_id", input.OrderID.String()),
		zap.String("tracking_id", trackingID),
	)
	return true, nil
}
