package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

func TestGetOrder_Execute(t *testing.T) {
	order, err := domain.CreateOrder(models.GenerateUUID(), []domain.OrderItem{
		{ProductID: models.GenerateUUID(), Quantity: 2, UnitPrice: models.NewMoney(2500, "USD")},
	})
	require.NoError(t, err)

	tests := []struct {
		name          string
		query         *GetOrderQuery
		setupMocks    func(repo *mockOrderRepository)
		expectedError string
	}{
		{
			name:  "returns the order read model",
			query: &GetOrderQuery{OrderID: order.ID.String()},
			setupMocks: func(repo *mockOrderRepository) {
				repo.On("FindByID", mock.Anything, order.ID).Return(order, nil).Once()
			},
		},
		{
			name:          "rejects a malformed order id",
			query:         &GetOrderQuery{OrderID: "not-a-uuid"},
			setupMocks:    func(*mockOrderRepository) {},
			expectedError: "invalid order ID",
		},
		{
			name:  "reports a missing order",
			query: &GetOrderQuery{OrderID: models.GenerateUUID().String()},
			setupMocks: func(repo *mockOrderRepository) {
				repo.On("FindByID", mock.Anything, mock.AnythingOfType("models.ID")).Return(nil, nil).Once()
			},
			expectedError: domain.ErrOrderNotFound.Error(),
		},
		{
			name:  "propagates repository failures",
			query: &GetOrderQuery{OrderID: models.GenerateUUID().String()},
			setupMocks: func(repo *mockOrderRepository) {
				repo.On("FindByID", mock.Anything, mock.AnythingOfType("models.ID")).
					Return(nil, errors.New("connection refused")).Once()
			},
			expectedError: "failed to find order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepository{}
			tt.setupMocks(repo)

			uc := NewGetOrder(repo)
			response, err := uc.Execute(context.Background(), tt.query)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, response)
			} else {
				require.NoError(t, err)
				require.NotNil(t, response)
				assert.Equal(t, order.ID.String(), response.OrderID)
				assert.Equal(t, int64(5000), response.TotalAmount)
				assert.Equal(t, "USD", response.Currency)
				require.Len(t, response.Items, 1)
				assert.Equal(t, int64(5000), response.Items[0].LineTotal)
			}

			repo.AssertExpectations(t)
		})
	}
}
