package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SignalOrderApproval carries the manual approval decision for high value
// orders. The payload is a JSON boolean.
const SignalOrderApproval = "OrderApproval"

// Config tunes the business thresholds of the order workflow
type Config struct {
	// ApprovalThreshold is the order total above which a manual approval is
	// required before payment
	ApprovalThreshold models.Money
	// ApprovalTimeout is how long the workflow waits for the approval
	// decision before cancelling the order
	ApprovalTimeout time.Duration
	// ShippingDelay is the durable wait between payment and fulfillment
	ShippingDelay time.Duration
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		ApprovalThreshold: models.NewMoney(100000, "USD"),
		ApprovalTimeout:   30 * time.Minute,
		ShippingDelay:     24 * time.Hour,
	}
}

var (
	errApprovalTimeout  = errors.New("approval window expired")
	errApprovalRejected = errors.New("order approval rejected")
	errPaymentFailed    = errors.New("payment failed")
)

// Orchestrator drives one order through the processing saga. All decisions
// are taken through the Run so an interrupted instance replays to the same
// point deterministically.
type Orchestrator struct {
	activities *Activities
	config     Config
}

// NewOrchestrator wires the orchestrator with its activity set
func NewOrchestrator(activities *Activities, config Config) *Orchestrator {
	return &Orchestrator{
		activities: activities,
		config:     config,
	}
}

// Execute runs the instance to its next suspension point or to completion.
// It returns ErrSuspended while the instance is parked on a timer or
// signal, a terminal result otherwise.
func (o *Orchestrator) Execute(ctx context.Context, r *Run) (*OrderProcessingResult, error) {
	input := r.Input()

	valid, err := Execute(ctx, r, "validate-order", func(ctx context.Context) (bool, error) {
		return o.activities.ValidateOrder(ctx, input)
	})
	if err != nil {
		return nil, err
	}
	if !valid {
		return o.cancel(ctx, r, "order validation failed")
	}

	reservations, allReserved, err := o.reserveInventory(ctx, r, input)
	if err != nil {
		return nil, err
	}
	if !allReserved {
		o.releaseInventory(ctx, r, reservations)
		return o.cancel(ctx, r, "insufficient inventory")
	}

	result, err := o.fulfill(ctx, r, input)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, ErrSuspended) {
		return nil, err
	}

	// Anything past this point failed after stock was taken, so the
	// reservation is unwound before the order is cancelled.
	o.releaseInventory(ctx, r, reservations)
	return o.cancel(ctx, r, err.Error())
}

// reserveInventory fans out one reservation per order line. The recorded
// per-line outcomes feed both the all-or-nothing decision and the later
// compensation.
func (o *Orchestrator) reserveInventory(ctx context.Context, r *Run, input OrderProcessingInput) ([]InventoryReservationInput, bool, error) {
	reservations := make([]InventoryReservationInput, len(input.Items))
	for i, item := range input.Items {
		reservations[i] = InventoryReservationInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			OrderID:   input.OrderID,
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	results := make([]bool, len(reservations))

	for i := range reservations {
		group.Go(func() error {
			stepID := fmt.Sprintf("reserve-inventory:%d:%s", i, reservations[i].ProductID)
			reserved, err := Execute(groupCtx, r, stepID, func(ctx context.Context) (bool, error) {
				return o.activities.ReserveInventory(ctx, reservations[i])
			})
			if err != nil {
				return err
			}
			results[i] = reserved
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, false, err
	}

	allReserved := true
	for i, reserved := range results {
		reservations[i].Reserved = reserved
		if !reserved {
			allReserved = false
		}
	}
	return reservations, allReserved, nil
}

// releaseInventory compensates the reservation fan-out. A release step is
// issued for every line; lines that never reserved skip the stock credit
// inside the activity. Failures are absorbed, compensation never blocks
// the cancellation.
func (o *Orchestrator) releaseInventory(ctx context.Context, r *Run, reservations []InventoryReservationInput) {
	for i, reservation := range reservations {
		stepID := fmt.Sprintf("release-inventory:%d:%s", i, reservation.ProductID)
		released, err := Execute(ctx, r, stepID, func(ctx context.Context) (bool, error) {
			return o.activities.ReleaseInventory(ctx, reservation)
		})
		if err != nil || !released {
			logger.Error("inventory compensation incomplete",
				zap.String("instance_id", r.InstanceID().String()),
				zap.String("product_id", reservation.ProductID.String()),
				zap.Error(err),
			)
		}
	}
}

// fulfill is the post-reservation happy path: confirm, approval gate,
// payment, processing, shipping delay, ship. Business failures come back
// as sentinel errors for the caller to compensate; ErrSuspended passes
// through untouched.
func (o *Orchestrator) fulfill(ctx context.Context, r *Run, input OrderProcessingInput) (*OrderProcessingResult, error) {
	if _, err := Execute(ctx, r, "confirm-order", func(ctx context.Context) (bool, error) {
		return o.activities.UpdateOrderStatus(ctx, input.OrderID, domain.OrderStatusConfirmed)
	}); err != nil {
		return nil, err
	}

	if input.TotalAmount.GreaterThan(o.config.ApprovalThreshold) {
		approved, err := o.awaitApproval(ctx, r)
		if err != nil {
			return nil, err
		}
		if !approved {
			return nil, errApprovalRejected
		}
	}

	paid, err := Execute(ctx, r, "process-payment", func(ctx context.Context) (bool, error) {
		return o.activities.ProcessPayment(ctx, input)
	})
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, errPaymentFailed
	}

	if _, err := Execute(ctx, r, "mark-processing", func(ctx context.Context) (bool, error) {
		return o.activities.UpdateOrderStatus(ctx, input.OrderID, domain.OrderStatusProcessing)
	}); err != nil {
		return nil, err
	}

	if _, err := Execute(ctx, r, "notify-confirmed", func(ctx context.Context) (bool, error) {
		return o.activities.SendNotification(ctx, NotificationInput{
			OrderID: input.OrderID,
			UserID:  input.UserID,
			Type:    NotificationOrderConfirmed,
		})
	}); err != nil {
		return nil, err
	}

	if err := r.Sleep(ctx, "shipping-delay", o.config.ShippingDelay); err != nil {
		return nil, err
	}

	if _, err := Execute(ctx, r, "process-shipping", func(ctx context.Context) (bool, error) {
		return o.activities.ProcessShipping(ctx, input)
	}); err != nil {
		return nil, err
	}

	if _, err := Execute(ctx, r, "mark-shipped", func(ctx context.Context) (bool, error) {
		return o.activities.UpdateOrderStatus(ctx, input.OrderID, domain.OrderStatusShipped)
	}); err != nil {
		return nil, err
	}

	if _, err := Execute(ctx, r, "notify-shipped", func(ctx context.Context) (bool, error) {
		return o.activities.SendNotification(ctx, NotificationInput{
			OrderID: input.OrderID,
			UserID:  input.UserID,
			Type:    NotificationOrderShipped,
		})
	}); err != nil {
		return nil, err
	}

	return &OrderProcessingResult{
		Success:     true,
		Message:     "order processed",
		FinalStatus: domain.OrderStatusShipped,
	}, nil
}

// awaitApproval parks the instance on the manual approval signal. An
// expired window surfaces as errApprovalTimeout.
func (o *Orchestrator) awaitApproval(ctx context.Context, r *Run) (bool, error) {
	payload, timedOut, err := r.AwaitSignal(ctx, "await-approval", SignalOrderApproval, o.config.ApprovalTimeout)
	if err != nil {
		return false, err
	}
	if timedOut {
		return false, errApprovalTimeout
	}

	var approved bool
	if err := json.Unmarshal(payload, &approved); err != nil {
		return false, errors.Wrap(err, "malformed approval signal payload")
	}
	return approved, nil
}

// cancel drives the order to its cancelled terminal state and reports the
// reason to the customer. It only propagates infrastructure errors so a
// half-finished cancellation can be resumed.
func (o *Orchestrator) cancel(ctx context.Context, r *Run, reason string) (*OrderProcessingResult, error) {
	input := r.Input()

	if _, err := Execute(ctx, r, "cancel-order", func(ctx context.Context) (bool, error) {
		return o.activities.UpdateOrderStatus(ctx, input.OrderID, domain.OrderStatusCancelled)
	}); err != nil {
		return nil, err
	}

	if _, err := Execute(ctx, r, "notify-cancelled", func(ctx context.Context) (bool, error) {
		return o.activities.SendNotification(ctx, NotificationInput{
			OrderID: input.OrderID,
			UserID:  input.UserID,
			Type:    NotificationOrderCancelled,
		})
	}); err != nil {
		return nil, err
	}

	return &OrderProcessingResult{
		Success:     false,
		Message:     reason,
		FinalStatus: domain.OrderStatusCancelled,
	}, nil
}
