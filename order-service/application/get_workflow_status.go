package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/models"
)

// StatusReader reads workflow instance status
type StatusReader interface {
	GetStatus(ctx context.Context, instanceID models.ID) (*workflow.InstanceStatus, error)
}

// GetWorkflowStatusQuery represents the query for a workflow instance
type GetWorkflowStatusQuery struct {
	InstanceID string `json:"instance_id"`
}

// GetWorkflowStatus use case
type GetWorkflowStatus struct {
	workflows StatusReader
}

// NewGetWorkflowStatus creates a new GetWorkflowStatus use case
func NewGetWorkflowStatus(workflows StatusReader) *GetWorkflowStatus {
	return &GetWorkflowStatus{workflows: workflows}
}

// Execute executes the get workflow status use case
func (uc *GetWorkflowStatus) Execute(ctx context.Context, query *GetWorkflowStatusQuery) (*workflow.InstanceStatus, error) {
	if query.InstanceID == "" {
		return nil, errors.New("instance ID is required")
	}

	return uc.workflows.GetStatus(ctx, models.ID(query.InstanceID))
}
