package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/product-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Save(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) FindByID(ctx context.Context, id models.ID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

func newStockedProduct(t *testing.T, stock int) *domain.Product {
	t.Helper()
	product, err := domain.CreateProduct("widget", models.NewMoney(2500, "USD"), stock)
	require.NoError(t, err)
	return product
}

func TestAdjustStock_Execute(t *testing.T) {
	tests := []struct {
		name             string
		command          *AdjustStockCommand
		setupMocks       func(repo *mockProductRepository, publisher *mockPublisher, product *domain.Product)
		stock            int
		expectedSuccess  bool
		expectedNewStock int
		expectedError    string
	}{
		{
			name:    "reserves stock with a negative delta",
			command: &AdjustStockCommand{ProductID: models.GenerateUUID().String(), Delta: -3},
			stock:   10,
			setupMocks: func(repo *mockProductRepository, publisher *mockPublisher, product *domain.Product) {
				repo.On("FindByID", mock.Anything, mock.AnythingOfType("models.ID")).Return(product, nil).Once()
				repo.On("Save", mock.Anything, product).Return(nil).Once()
				publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
			},
			expectedSuccess:  true,
			expectedNewStock: 7,
		},
		{
			name:    "releases stock with a positive delta",
			command: &AdjustStockCommand{ProductID: models.GenerateUUID().String(), Delta: 3},
			stock:   7,
			setupMocks: func(repo *mockProductRepository, publisher *mockPublisher, product *domain.Product) {
				repo.On("FindByID", mock.Anything, mock.AnythingOfType("models.ID")).Return(product, nil).Once()
				repo.On("Save", mock.Anything, product).Return(nil).Once()
				publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
			},
			expectedSuccess:  true,
			expectedNewStock: 10,
		},
		{
			name:    "insufficient stock is a business answer",
			command: &AdjustStockCommand{ProductID: models.GenerateUUID().String(), Delta: -5},
			stock:   2,
			setupMocks: func(repo *mockProductRepository, publisher *mockPublisher, product *domain.Product) {
				repo.On("FindByID", mock.Anything, mock.AnythingOfType("models.ID")).Return(product, nil).Once()
			},
			expectedSuccess:  false,
			expectedNewStock: 2,
		},
		{
			name:          "zero delta is rejected",
			command:       &AdjustStockCommand{ProductID: models.GenerateUUID().String(), Delta: 0},
			stock:         10,
			setupMocks:    func(*mockProductRepository, *mockPublisher, *domain.Product) {},
			expectedError: "delta cannot be zero",
		},
		{
			name:    "missing product",
			command: &AdjustStockCommand{ProductID: models.GenerateUUID().String(), Delta: -1},
			stock:   10,
			setupMocks: func(repo *mockProductRepository, publisher *mockPublisher, product *domain.Product) {
				repo.On("FindByID", mock.Anything, mock.AnythingOfType("models.ID")).Return(nil, nil).Once()
			},
			expectedError: domain.ErrProductNotFound.Error(),
		},
		{
			name:    "propagates repository failures",
			command: &AdjustStockCommand{ProductID: models.GenerateUUID().String(), Delta: -1},
			stock:   10,
			setupMocks: func(repo *mockProductRepository, publisher *mockPublisher, product *domain.Product) {
				repo.On("FindByID", mock.Anything, mock.AnythingOfType("models.ID")).
					Return(nil, errors.New("connection refused")).Once()
			},
			expectedError: "failed to find product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProductRepository{}
			publisher := &mockPublisher{}
			product := newStockedProduct(t, tt.stock)
			tt.setupMocks(repo, publisher, product)

			uc := NewAdjustStock(repo, publisher)
			response, err := uc.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				require.NoError(t, err)
				require.NotNil(t, response)
				assert.Equal(t, tt.expectedSuccess, response.Success)
				assert.Equal(t, tt.expectedNewStock, response.NewStock)
			}

			repo.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestCheckStock_Execute(t *testing.T) {
	t.Run("reports availability", func(t *testing.T) {
		repo := &mockProductRepository{}
		product := newStockedProduct(t, 5)
		repo.On("FindByID", mock.Anything, mock.AnythingOfType("models.ID")).Return(product, nil).Twice()

		uc := NewCheckStock(repo)

		response, err := uc.Execute(context.Background(), &CheckStockQuery{
			ProductID: models.GenerateUUID().String(),
			Quantity:  5,
		})
		require.NoError(t, err)
		assert.True(t, response.Available)
		assert.Equal(t, 5, response.CurrentStock)

		response, err = uc.Execute(context.Background(), &CheckStockQuery{
			ProductID: models.GenerateUUID().String(),
			Quantity:  6,
		})
		require.NoError(t, err)
		assert.False(t, response.Available)

		repo.AssertExpectations(t)
	})

	t.Run("rejects a non-positive quantity", func(t *testing.T) {
		uc := NewCheckStock(&mockProductRepository{})

		_, err := uc.Execute(context.Background(), &CheckStockQuery{
			ProductID: models.GenerateUUID().String(),
			Quantity:  0,
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "quantity must be positive")
	})
}
