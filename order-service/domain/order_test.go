package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

func orderItem(quantity int, unitPriceCents int64) OrderItem {
	return OrderItem{
		ProductID: models.GenerateUUID(),
		Quantity:  quantity,
		UnitPrice: models.NewMoney(unitPriceCents, "USD"),
	}
}

func TestCreateOrder(t *testing.T) {
	tests := []struct {
		name          string
		items         []OrderItem
		expectedError string
		expectedTotal int64
	}{
		{
			name:          "derives the total from the items",
			items:         []OrderItem{orderItem(2, 2500), orderItem(1, 1000)},
			expectedTotal: 6000,
		},
		{
			name:          "single item order",
			items:         []OrderItem{orderItem(3, 999)},
			expectedTotal: 2997,
		},
		{
			name:          "rejects an empty order",
			items:         nil,
			expectedError: "order must contain at least one item",
		},
		{
			name:          "rejects a non-positive quantity",
			items:         []OrderItem{orderItem(0, 2500)},
			expectedError: "item quantity must be positive",
		},
		{
			name:          "rejects a non-positive unit price",
			items:         []OrderItem{orderItem(1, 0)},
			expectedError: "item unit price must be positive",
		},
		{
			name: "rejects mixed currencies",
			items: []OrderItem{
				orderItem(1, 2500),
				{ProductID: models.GenerateUUID(), Quantity: 1, UnitPrice: models.NewMoney(1000, "EUR")},
			},
			expectedError: "failed to total order items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := models.GenerateUUID()

			order, err := CreateOrder(userID, tt.items)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, order)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, userID, order.UserID)
			assert.Equal(t, OrderStatusPending, order.Status)
			assert.Equal(t, tt.expectedTotal, order.TotalAmount.Amount)
			assert.Equal(t, "USD", order.TotalAmount.Currency)

			require.Len(t, order.Events(), 1)
			assert.Equal(t, events.OrderCreatedEvent, order.Events()[0].Topic)
		})
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	newOrder := func(t *testing.T) *Order {
		t.Helper()
		order, err := CreateOrder(models.GenerateUUID(), []OrderItem{orderItem(1, 2500)})
		require.NoError(t, err)
		order.ClearEvents()
		return order
	}

	t.Run("walks the happy path to delivered", func(t *testing.T) {
		order := newOrder(t)

		require.NoError(t, order.Confirm())
		require.NoError(t, order.MarkProcessing())
		require.NoError(t, order.Ship())
		require.NoError(t, order.Deliver())

		assert.Equal(t, OrderStatusDelivered, order.Status)
		assert.Len(t, order.Events(), 4)
	})

	t.Run("cancelled orders cannot be reopened", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.Cancel("payment failed"))

		assert.Error(t, order.Confirm())
		assert.Error(t, order.Ship())
		assert.Equal(t, OrderStatusCancelled, order.Status)
	})

	t.Run("delivered orders cannot transition", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.Confirm())
		require.NoError(t, order.MarkProcessing())
		require.NoError(t, order.Ship())
		require.NoError(t, order.Deliver())

		assert.Error(t, order.Cancel("too late"))
	})

	t.Run("shipped orders can only be delivered", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.Confirm())
		require.NoError(t, order.MarkProcessing())
		require.NoError(t, order.Ship())

		assert.Error(t, order.Cancel("changed my mind"))
		assert.Error(t, order.Confirm())
		require.NoError(t, order.Deliver())
	})

	t.Run("each transition bumps the version", func(t *testing.T) {
		order := newOrder(t)
		initial := order.Version.Value

		require.NoError(t, order.Confirm())
		assert.Equal(t, initial+1, order.Version.Value)
	})
}

func TestSetStatus(t *testing.T) {
	order, err := CreateOrder(models.GenerateUUID(), []OrderItem{orderItem(1, 2500)})
	require.NoError(t, err)

	require.NoError(t, order.SetStatus(OrderStatusConfirmed))
	assert.Equal(t, OrderStatusConfirmed, order.Status)

	assert.Error(t, order.SetStatus(OrderStatus("archived")))
}
