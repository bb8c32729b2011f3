package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/models"
)

// ApprovalRaiser delivers an approval decision to a running workflow
type ApprovalRaiser interface {
	RaiseApproval(ctx context.Context, orderID models.ID, approved bool) error
}

// ApproveOrderCommand represents the manual approval decision for an order
type ApproveOrderCommand struct {
	OrderID  string `json:"order_id"`
	Approved bool   `json:"approved"`
}

// ApproveOrder use case: routes the approval decision into the order's
// running workflow
type ApproveOrder struct {
	workflows ApprovalRaiser
}

// NewApproveOrder creates a new ApproveOrder use case
func NewApproveOrder(workflows ApprovalRaiser) *ApproveOrder {
	return &ApproveOrder{workflows: workflows}
}

// Execute executes the approve order use case
func (uc *ApproveOrder) Execute(ctx context.Context, cmd *ApproveOrderCommand) error {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "invalid order ID")
	}

	return uc.workflows.RaiseApproval(ctx, orderID, cmd.Approved)
}
