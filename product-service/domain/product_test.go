package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

func TestCreateProduct(t *testing.T) {
	tests := []struct {
		name          string
		productName   string
		priceCents    int64
		stock         int
		expectedError string
	}{
		{
			name:        "creates an active product",
			productName: "widget",
			priceCents:  2500,
			stock:       10,
		},
		{
			name:        "zero initial stock is allowed",
			productName: "widget",
			priceCents:  2500,
			stock:       0,
		},
		{
			name:          "rejects an empty name",
			priceCents:    2500,
			stock:         10,
			expectedError: "product name is required",
		},
		{
			name:          "rejects a non-positive price",
			productName:   "widget",
			priceCents:    0,
			stock:         10,
			expectedError: "product price must be positive",
		},
		{
			name:          "rejects negative initial stock",
			productName:   "widget",
			priceCents:    2500,
			stock:         -1,
			expectedError: "initial stock cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := CreateProduct(tt.productName, models.NewMoney(tt.priceCents, "USD"), tt.stock)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.productName, product.Name)
			assert.Equal(t, tt.stock, product.Stock)
			assert.True(t, product.Active)
		})
	}
}

func TestAdjustStock(t *testing.T) {
	newProduct := func(t *testing.T, stock int) *Product {
		t.Helper()
		product, err := CreateProduct("widget", models.NewMoney(2500, "USD"), stock)
		require.NoError(t, err)
		return product
	}

	t.Run("negative delta reserves stock", func(t *testing.T) {
		product := newProduct(t, 10)

		require.NoError(t, product.AdjustStock(-3))

		assert.Equal(t, 7, product.Stock)
		require.Len(t, product.Events(), 1)
		assert.Equal(t, events.StockReservedEvent, product.Events()[0].Topic)
	})

	t.Run("positive delta releases stock", func(t *testing.T) {
		product := newProduct(t, 7)

		require.NoError(t, product.AdjustStock(3))

		assert.Equal(t, 10, product.Stock)
		require.Len(t, product.Events(), 1)
		assert.Equal(t, events.StockReleasedEvent, product.Events()[0].Topic)
	})

	t.Run("reservation beyond available stock is rejected", func(t *testing.T) {
		product := newProduct(t, 2)

		err := product.AdjustStock(-3)

		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 2, product.Stock)
		assert.Empty(t, product.Events())
	})

	t.Run("draining to exactly zero is allowed", func(t *testing.T) {
		product := newProduct(t, 3)

		require.NoError(t, product.AdjustStock(-3))
		assert.Equal(t, 0, product.Stock)
	})
}

func TestHasStock(t *testing.T) {
	product, err := CreateProduct("widget", models.NewMoney(2500, "USD"), 5)
	require.NoError(t, err)

	assert.True(t, product.HasStock(5))
	assert.False(t, product.HasStock(6))

	product.Deactivate()
	assert.False(t, product.HasStock(1))
}
