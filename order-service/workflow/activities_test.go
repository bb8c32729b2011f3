package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

func (e *testEnv) activities(policy ValidationPolicy) *Activities {
	return NewActivities(e.users, e.catalog, e.orders, e.publisher, e.gateway, e.shipper, policy)
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name   string
		policy ValidationPolicy
		setup  func(t *testing.T, env *testEnv) OrderProcessingInput
		valid  bool
	}{
		{
			name:   "valid order passes",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				productID := env.seedProduct(t, 2500, 10)
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(productID, 2, 2500)},
				}
			},
			valid: true,
		},
		{
			name:   "empty order rejected",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
				}
			},
			valid: false,
		},
		{
			name:   "non-positive total rejected",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				productID := env.seedProduct(t, 2500, 10)
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(0, "USD"),
					Items:       []domain.OrderItem{item(productID, 2, 2500)},
				}
			},
			valid: false,
		},
		{
			name:   "unknown user rejected",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				productID := env.seedProduct(t, 2500, 10)
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      models.GenerateUUID(),
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(productID, 2, 2500)},
				}
			},
			valid: false,
		},
		{
			name:   "inactive user rejected",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				env.users.add(&User{ID: env.userID, Name: "Ada", Email: "ada@example.com", Active: false})
				productID := env.seedProduct(t, 2500, 10)
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(productID, 2, 2500)},
				}
			},
			valid: false,
		},
		{
			name:   "unknown product rejected",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(models.GenerateUUID(), 2, 2500)},
				}
			},
			valid: false,
		},
		{
			name:   "inactive product rejected",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				productID := models.GenerateUUID()
				env.catalog.add(&Product{
					ID:     productID,
					Name:   "retired widget",
					Price:  models.NewMoney(2500, "USD"),
					Stock:  10,
					Active: false,
				})
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(productID, 2, 2500)},
				}
			},
			valid: false,
		},
		{
			name:   "insufficient stock rejected",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				productID := env.seedProduct(t, 2500, 1)
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(productID, 2, 2500)},
				}
			},
			valid: false,
		},
		{
			name:   "non-positive quantity rejected",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				productID := env.seedProduct(t, 2500, 10)
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(productID, 0, 2500)},
				}
			},
			valid: false,
		},
		{
			name:   "unreachable collaborators fail validation under strict policy",
			policy: ValidationStrict,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				env.users.unreachable = true
				productID := env.seedProduct(t, 2500, 10)
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(productID, 2, 2500)},
				}
			},
			valid: false,
		},
		{
			name:   "unreachable collaborators pass validation under permissive policy",
			policy: ValidationPermissive,
			setup: func(t *testing.T, env *testEnv) OrderProcessingInput {
				env.users.unreachable = true
				env.catalog.unreachable = true
				return OrderProcessingInput{
					OrderID:     models.GenerateUUID(),
					UserID:      env.userID,
					TotalAmount: models.NewMoney(5000, "USD"),
					Items:       []domain.OrderItem{item(models.GenerateUUID(), 2, 2500)},
				}
			},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			input := tt.setup(t, env)

			valid, err := env.activities(tt.policy).ValidateOrder(context.Background(), input)

			require.NoError(t, err)
			assert.Equal(t, tt.valid, valid)
		})
	}
}

func TestReserveInventory(t *testing.T) {
	tests := []struct {
		name          string
		stock         int
		quantity      int
		unreachable   bool
		reserved      bool
		expectedStock int
	}{
		{
			name:          "reserves available stock",
			stock:         10,
			quantity:      3,
			reserved:      true,
			expectedStock: 7,
		},
		{
			name:          "rejects when stock is short",
			stock:         2,
			quantity:      3,
			reserved:      false,
			expectedStock: 2,
		},
		{
			name:          "reports failure when catalog is unreachable",
			stock:         10,
			quantity:      3,
			unreachable:   true,
			reserved:      false,
			expectedStock: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			productID := env.seedProduct(t, 2500, tt.stock)
			env.catalog.unreachable = tt.unreachable

			reserved, err := env.activities(ValidationStrict).ReserveInventory(context.Background(), InventoryReservationInput{
				ProductID: productID,
				Quantity:  tt.quantity,
				OrderID:   models.GenerateUUID(),
			})

			require.NoError(t, err)
			assert.Equal(t, tt.reserved, reserved)
			assert.Equal(t, tt.expectedStock, env.catalog.stock(t, productID))
		})
	}
}

func TestReleaseInventory(t *testing.T) {
	t.Run("credits reserved stock back", func(t *testing.T) {
		env := newTestEnv(t)
		productID := env.seedProduct(t, 2500, 7)

		released, err := env.activities(ValidationStrict).ReleaseInventory(context.Background(), InventoryReservationInput{
			ProductID: productID,
			Quantity:  3,
			OrderID:   models.GenerateUUID(),
			Reserved:  true,
		})

		require.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, 10, env.catalog.stock(t, productID))
	})

	t.Run("skips lines that never reserved", func(t *testing.T) {
		env := newTestEnv(t)
		productID := env.seedProduct(t, 2500, 7)

		released, err := env.activities(ValidationStrict).ReleaseInventory(context.Background(), InventoryReservationInput{
			ProductID: productID,
			Quantity:  3,
			OrderID:   models.GenerateUUID(),
			Reserved:  false,
		})

		require.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, 7, env.catalog.stock(t, productID))
		assert.Zero(t, env.catalog.updateCalls)
	})

	t.Run("absorbs catalog failures", func(t *testing.T) {
		env := newTestEnv(t)
		productID := env.seedProduct(t, 2500, 7)
		env.catalog.unreachable = true

		released, err := env.activities(ValidationStrict).ReleaseInventory(context.Background(), InventoryReservationInput{
			ProductID: productID,
			Quantity:  3,
			OrderID:   models.GenerateUUID(),
			Reserved:  true,
		})

		require.NoError(t, err)
		assert.False(t, released)
	})
}

func TestProcessPayment(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
		paid        bool
	}{
		{
			name:        "charges below the decline threshold",
			amountCents: 499999,
			paid:        true,
		},
		{
			name:        "decline at the threshold is a business result",
			amountCents: 500000,
			paid:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			paid, err := env.activities(ValidationStrict).ProcessPayment(context.Background(), OrderProcessingInput{
				OrderID:     models.GenerateUUID(),
				UserID:      env.userID,
				TotalAmount: models.NewMoney(tt.amountCents, "USD"),
			})

			require.NoError(t, err)
			assert.Equal(t, tt.paid, paid)
			assert.Equal(t, 1, env.gateway.chargeCount())
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("transitions the order and publishes its events", func(t *testing.T) {
		env := newTestEnv(t)
		productID := env.seedProduct(t, 2500, 10)
		order := env.placeOrder(t, item(productID, 1, 2500))

		updated, err := env.activities(ValidationStrict).UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusConfirmed)

		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, domain.OrderStatusConfirmed, env.orders.status(t, order.ID))
		assert.Len(t, env.publisher.topics(), 1)
	})

	t.Run("reports false for a missing order", func(t *testing.T) {
		env := newTestEnv(t)

		updated, err := env.activities(ValidationStrict).UpdateOrderStatus(context.Background(), models.GenerateUUID(), domain.OrderStatusConfirmed)

		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("reports false for an illegal transition", func(t *testing.T) {
		env := newTestEnv(t)
		productID := env.seedProduct(t, 2500, 10)
		order := env.placeOrder(t, item(productID, 1, 2500))

		activities := env.activities(ValidationStrict)
		ctx := context.Background()

		updated, err := activities.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled)
		require.NoError(t, err)
		require.True(t, updated)

		updated, err = activities.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusConfirmed)
		require.NoError(t, err)
		assert.False(t, updated)
	})
}
