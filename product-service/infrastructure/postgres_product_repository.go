package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/product-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// PostgresProductRepository implements ProductRepository using PostgreSQL
type PostgresProductRepository struct {
	db *sqlx.DB
}

// NewPostgresProductRepository creates a new PostgresProductRepository
func NewPostgresProductRepository(db *sqlx.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

type postgresProduct struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	Price     int64      `db:"price"`
	Currency  string     `db:"currency"`
	Stock     int        `db:"stock"`
	Active    bool       `db:"active"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
	Version   int        `db:"version"`
}

// Save persists a product. Version 1 inserts, anything later updates with
// optimistic locking on the previous version. Concurrent stock adjustments
// lose the race and must retry against fresh state.
func (r *PostgresProductRepository) Save(ctx context.Context, product *domain.Product) error {
	if product.Version.Value == 1 {
		return r.insertProduct(ctx, product)
	}
	return r.updateProduct(ctx, product)
}

func (r *PostgresProductRepository) insertProduct(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, name, price, currency, stock, active,
			created_at, updated_at, version
		) VALUES (
			:id, :name, :price, :currency, :stock, :active,
			:created_at, :updated_at, :version
		)`

	_, err := r.db.NamedExecContext(ctx, query, r.toPostgres(product))
	if err != nil {
		return errors.Wrap(err, "failed to insert product")
	}

	return nil
}

func (r *PostgresProductRepository) updateProduct(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET stock = :stock, active = :active, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          product.ID.String(),
		"stock":       product.Stock,
		"active":      product.Active,
		"updated_at":  product.Timestamps.UpdatedAt,
		"version":     product.Version.Value,
		"old_version": product.Version.Value - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update product")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if rows == 0 {
		return errors.Errorf("concurrent modification of product %s", product.ID)
	}

	return nil
}

// FindByID finds a product by ID. Returns nil, nil when no product matches.
func (r *PostgresProductRepository) FindByID(ctx context.Context, id models.ID) (*domain.Product, error) {
	query := `
		SELECT id, name, price, currency, stock, active,
			   created_at, updated_at, deleted_at, version
		FROM products
		WHERE id = $1 AND deleted_at IS NULL`

	var pgProduct postgresProduct
	err := r.db.GetContext(ctx, &pgProduct, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find product")
	}

	return r.toDomain(&pgProduct)
}

func (r *PostgresProductRepository) toPostgres(product *domain.Product) *postgresProduct {
	return &postgresProduct{
		ID:        product.ID.String(),
		Name:      product.Name,
		Price:     product.Price.Amount,
		Currency:  product.Price.Currency,
		Stock:     product.Stock,
		Active:    product.Active,
		CreatedAt: product.Timestamps.CreatedAt,
		UpdatedAt: product.Timestamps.UpdatedAt,
		DeletedAt: product.Timestamps.DeletedAt,
		Version:   product.Version.Value,
	}
}

func (r *PostgresProductRepository) toDomain(pgProduct *postgresProduct) (*domain.Product, error) {
	id, err := models.NewID(pgProduct.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product ID")
	}

	return &domain.Product{
		ID:     id,
		Name:   pgProduct.Name,
		Price:  models.NewMoney(pgProduct.Price, pgProduct.Currency),
		Stock:  pgProduct.Stock,
		Active: pgProduct.Active,
		Timestamps: models.Timestamps{
			CreatedAt: pgProduct.CreatedAt,
			UpdatedAt: pgProduct.UpdatedAt,
			DeletedAt: pgProduct.DeletedAt,
		},
		Version: models.Version{Value: pgProduct.Version},
	}, nil
}
