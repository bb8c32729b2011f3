package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
)

var (
	// ErrWorkflowAlreadyRunning is returned when the order already has a
	// running instance
	ErrWorkflowAlreadyRunning = errors.New("workflow already running for order")
	// ErrNoPendingApproval is returned when an approval decision arrives for
	// an order with no running workflow
	ErrNoPendingApproval = errors.New("no workflow awaiting approval for order")
)

// InstanceStatus is the external projection of an instance
type InstanceStatus struct {
	InstanceID    models.ID              `json:"instance_id"`
	OrderID       models.ID              `json:"order_id"`
	Status        RuntimeStatus          `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	LastUpdatedAt time.Time              `json:"last_updated_at"`
	Output        *OrderProcessingResult `json:"output,omitempty"`
}

// Client is the application-facing surface of the workflow runtime: it
// starts instances, delivers approval decisions and reports status.
type Client struct {
	store     Store
	orders    domain.OrderRepository
	runner    *Runner
	publisher events.Publisher
}

// NewClient creates a workflow Client
func NewClient(store Store, orders domain.OrderRepository, runner *Runner, publisher events.Publisher) *Client {
	return &Client{
		store:     store,
		orders:    orders,
		runner:    runner,
		publisher: publisher,
	}
}

// StartWorkflow creates and immediately resumes a new instance for the
// order. One running instance per order: a duplicate start is rejected.
func (c *Client) StartWorkflow(ctx context.Context, orderID models.ID) (*Instance, error) {
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load order")
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	running, err := c.store.RunningInstanceByOrder(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check for running instance")
	}
	if running != nil {
		return nil, ErrWorkflowAlreadyRunning
	}

	instance := NewInstance(order)
	if err := c.store.CreateInstance(ctx, instance); err != nil {
		return nil, errors.Wrap(err, "failed to create workflow instance")
	}

	event := events.NewEvent(orderID, events.WorkflowStartedEvent, instance.Input).
		WithCorrelationID(orderID).
		WithMetadata("instance_id", instance.ID.String())
	if err := c.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish workflow started event",
			zap.String("instance_id", instance.ID.String()),
			zap.Error(err),
		)
	}

	logger.Info("workflow started",
		zap.String("instance_id", instance.ID.String()),
		zap.String("order_id", orderID.String()),
	)

	// First resumption runs inline so synchronous steps complete before the
	// start call returns. Failures are already persisted on the instance.
	if err := c.runner.Resume(ctx, instance.ID); err != nil {
		logger.Error("initial workflow resumption failed",
			zap.String("instance_id", instance.ID.String()),
			zap.Error(err),
		)
	}

	return instance, nil
}

// RaiseApproval delivers the manual approval decision to the running
// instance of the order and resumes it.
func (c *Client) RaiseApproval(ctx context.Context, orderID models.ID, approved bool) error {
	instance, err := c.store.RunningInstanceByOrder(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to find running instance")
	}
	if instance == nil {
		return ErrNoPendingApproval
	}

	payload, err := json.Marshal(approved)
	if err != nil {
		return errors.Wrap(err, "failed to encode approval decision")
	}

	err = c.store.SaveSignal(ctx, Signal{
		InstanceID: instance.ID,
		Name:       SignalOrderApproval,
		Payload:    payload,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to save approval signal")
	}

	logger.Info("approval decision received",
		zap.String("instance_id", instance.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.Bool("approved", approved),
	)

	return c.runner.Resume(ctx, instance.ID)
}

// GetStatus returns the status projection of an instance
func (c *Client) GetStatus(ctx context.Context, instanceID models.ID) (*InstanceStatus, error) {
	instance, err := c.store.Instance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	return &InstanceStatus{
		InstanceID:    instance.ID,
		OrderID:       instance.OrderID,
		Status:        instance.Status,
		CreatedAt:     instance.CreatedAt,
		LastUpdatedAt: instance.LastUpdatedAt,
		Output:        instance.Output,
	}, nil
}
