package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/models"
)

func validCreateCommand() *CreateOrderCommand {
	return &CreateOrderCommand{
		UserID: models.GenerateUUID().String(),
		Items: []CreateOrderItem{
			{ProductID: models.GenerateUUID().String(), Quantity: 2, UnitPrice: 2500, Currency: "USD"},
			{ProductID: models.GenerateUUID().String(), Quantity: 1, UnitPrice: 1000, Currency: "USD"},
		},
	}
}

func TestCreateOrder_Execute(t *testing.T) {
	tests := []struct {
		name          string
		command       *CreateOrderCommand
		setupMocks    func(repo *mockOrderRepository, publisher *mockPublisher, workflows *mockWorkflowStarter)
		expectedError string
	}{
		{
			name:    "creates the order and starts its workflow",
			command: validCreateCommand(),
			setupMocks: func(repo *mockOrderRepository, publisher *mockPublisher, workflows *mockWorkflowStarter) {
				repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
				workflows.On("StartWorkflow", mock.Anything, mock.AnythingOfType("models.ID")).
					Return(&workflow.Instance{ID: "order-processing-test-1"}, nil).Once()
			},
		},
		{
			name:          "rejects a missing user id",
			command:       &CreateOrderCommand{Items: validCreateCommand().Items},
			setupMocks:    func(*mockOrderRepository, *mockPublisher, *mockWorkflowStarter) {},
			expectedError: "user ID is required",
		},
		{
			name:          "rejects an empty item list",
			command:       &CreateOrderCommand{UserID: models.GenerateUUID().String()},
			setupMocks:    func(*mockOrderRepository, *mockPublisher, *mockWorkflowStarter) {},
			expectedError: "order must contain at least one item",
		},
		{
			name: "rejects a non-positive quantity",
			command: &CreateOrderCommand{
				UserID: models.GenerateUUID().String(),
				Items: []CreateOrderItem{
					{ProductID: models.GenerateUUID().String(), Quantity: 0, UnitPrice: 2500, Currency: "USD"},
				},
			},
			setupMocks:    func(*mockOrderRepository, *mockPublisher, *mockWorkflowStarter) {},
			expectedError: "quantity must be positive",
		},
		{
			name: "rejects a malformed user id",
			command: &CreateOrderCommand{
				UserID: "not-a-uuid",
				Items:  validCreateCommand().Items,
			},
			setupMocks:    func(*mockOrderRepository, *mockPublisher, *mockWorkflowStarter) {},
			expectedError: "invalid user ID",
		},
		{
			name:    "propagates repository failures",
			command: validCreateCommand(),
			setupMocks: func(repo *mockOrderRepository, publisher *mockPublisher, workflows *mockWorkflowStarter) {
				repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).
					Return(errors.New("connection refused")).Once()
			},
			expectedError: "failed to save order",
		},
		{
			name:    "propagates workflow start failures",
			command: validCreateCommand(),
			setupMocks: func(repo *mockOrderRepository, publisher *mockPublisher, workflows *mockWorkflowStarter) {
				repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
				workflows.On("StartWorkflow", mock.Anything, mock.AnythingOfType("models.ID")).
					Return(nil, errors.New("store unavailable")).Once()
			},
			expectedError: "failed to start order processing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepository{}
			publisher := &mockPublisher{}
			workflows := &mockWorkflowStarter{}
			tt.setupMocks(repo, publisher, workflows)

			uc := NewCreateOrder(repo, publisher, workflows)
			response, err := uc.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, response)
			} else {
				require.NoError(t, err)
				require.NotNil(t, response)
				assert.NotEmpty(t, response.OrderID)
				assert.Equal(t, "order-processing-test-1", response.InstanceID)
				assert.Equal(t, string(domain.OrderStatusPending), response.Status)
			}

			repo.AssertExpectations(t)
			publisher.AssertExpectations(t)
			workflows.AssertExpectations(t)
		})
	}
}
