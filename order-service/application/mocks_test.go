package application

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) FindByUserID(ctx context.Context, userID models.ID) ([]*domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

type mockWorkflowStarter struct {
	mock.Mock
}

func (m *mockWorkflowStarter) StartWorkflow(ctx context.Context, orderID models.ID) (*workflow.Instance, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Instance), args.Error(1)
}

type mockApprovalRaiser struct {
	mock.Mock
}

func (m *mockApprovalRaiser) RaiseApproval(ctx context.Context, orderID models.ID, approved bool) error {
	args := m.Called(ctx, orderID, approved)
	return args.Error(0)
}

type mockStatusReader struct {
	mock.Mock
}

func (m *mockStatusReader) GetStatus(ctx context.Context, instanceID models.ID) (*workflow.InstanceStatus, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.InstanceStatus), args.Error(1)
}
