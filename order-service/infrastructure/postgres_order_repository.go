package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents an order in the database. Items are stored as a
// JSONB document, they are only ever read back as a whole.
type postgresOrder struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	Items       json.RawMessage `db:"items"`
	TotalAmount int64           `db:"total_amount"`
	Currency    string          `db:"currency"`
	Status      string          `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	DeletedAt   *time.Time      `db:"deleted_at"`
	Version     int             `db:"version"`
}

// Save persists an order. Version 1 inserts, anything later updates with
// optimistic locking on the previous version.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if order.Version.Value == 1 {
		return r.insertOrder(ctx, order)
	}
	return r.updateOrder(ctx, order)
}

func (r *PostgresOrderRepository) insertOrder(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, items, total_amount, currency, status,
			created_at, updated_at, version
		) VALUES (
			:id, :user_id, :items, :total_amount, :currency, :status,
			:created_at, :updated_at, :version
		)`

	pgOrder, err := r.toPostgres(order)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, query, pgOrder)
	if err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	return nil
}

func (r *PostgresOrderRepository) updateOrder(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = :status, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          order.ID.String(),
		"status":      string(order.Status),
		"updated_at":  order.Timestamps.UpdatedAt,
		"version":     order.Version.Value,
		"old_version": order.Version.Value - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if rows == 0 {
		return errors.Errorf("concurrent modification of order %s", order.ID)
	}

	return nil
}

// FindByID finds an order by ID. Returns nil, nil when no order matches.
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, items, total_amount, currency, status,
			   created_at, updated_at, deleted_at, version
		FROM orders
		WHERE id = $1 AND deleted_at IS NULL`

	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	return r.toDomain(&pgOrder)
}

// FindByUserID finds orders by user ID, newest first
func (r *PostgresOrderRepository) FindByUserID(ctx context.Context, userID models.ID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, items, total_amount, currency, status,
			   created_at, updated_at, deleted_at, version
		FROM orders
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	var pgOrders []postgresOrder
	err := r.db.SelectContext(ctx, &pgOrders, query, userID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to find orders by user ID")
	}

	orders := make([]*domain.Order, len(pgOrders))
	for i, pgOrder := range pgOrders {
		order, err := r.toDomain(&pgOrder)
		if err != nil {
			return nil, err
		}
		orders[i] = order
	}

	return orders, nil
}

func (r *PostgresOrderRepository) toPostgres(order *domain.Order) (*postgresOrder, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode order items")
	}

	return &postgresOrder{
		ID:          order.ID.String(),
		UserID:      order.UserID.String(),
		Items:       items,
		TotalAmount: order.TotalAmount.Amount,
		Currency:    order.TotalAmount.Currency,
		Status:      string(order.Status),
		CreatedAt:   order.Timestamps.CreatedAt,
		UpdatedAt:   order.Timestamps.UpdatedAt,
		DeletedAt:   order.Timestamps.DeletedAt,
		Version:     order.Version.Value,
	}, nil
}

func (r *PostgresOrderRepository) toDomain(pgOrder *postgresOrder) (*domain.Order, error) {
	id, err := models.NewID(pgOrder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	userID, err := models.NewID(pgOrder.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	var items []domain.OrderItem
	if err := json.Unmarshal(pgOrder.Items, &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode order items")
	}

	return &domain.Order{
		ID:          id,
		UserID:      userID,
		Items:       items,
		TotalAmount: models.NewMoney(pgOrder.TotalAmount, pgOrder.Currency),
		Status:      domain.OrderStatus(pgOrder.Status),
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
			DeletedAt: pgOrder.DeletedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}, nil
}
