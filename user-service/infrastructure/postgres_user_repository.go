package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/models"
	"github.com/swiftcart/order-system/user-service/domain"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

type postgresUser struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	Active    bool       `db:"active"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
	Version   int        `db:"version"`
}

// Save persists a user. Version 1 inserts, anything later updates with
// optimistic locking on the previous version.
func (r *PostgresUserRepository) Save(ctx context.Context, user *domain.User) error {
	if user.Version.Value == 1 {
		query := `
			INSERT INTO users (id, name, email, active, created_at, updated_at, version)
			VALUES (:id, :name, :email, :active, :created_at, :updated_at, :version)`

		_, err := r.db.NamedExecContext(ctx, query, r.toPostgres(user))
		if err != nil {
			return errors.Wrap(err, "failed to insert user")
		}
		return nil
	}

	query := `
		UPDATE users
		SET name = :name, email = :email, active = :active,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          user.ID.String(),
		"name":        user.Name,
		"email":       user.Email,
		"active":      user.Active,
		"updated_at":  user.Timestamps.UpdatedAt,
		"version":     user.Version.Value,
		"old_version": user.Version.Value - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update user")
	}

	return nil
}

// FindByID finds a user by ID. Returns nil, nil when no user matches.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id models.ID) (*domain.User, error) {
	query := `
		SELECT id, name, email, active, created_at, updated_at, deleted_at, version
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`

	var pgUser postgresUser
	err := r.db.GetContext(ctx, &pgUser, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find user")
	}

	return r.toDomain(&pgUser)
}

func (r *PostgresUserRepository) toPostgres(user *domain.User) *postgresUser {
	return &postgresUser{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Active:    user.Active,
		CreatedAt: user.Timestamps.CreatedAt,
		UpdatedAt: user.Timestamps.UpdatedAt,
		DeletedAt: user.Timestamps.DeletedAt,
		Version:   user.Version.Value,
	}
}

func (r *PostgresUserRepository) toDomain(pgUser *postgresUser) (*domain.User, error) {
	id, err := models.NewID(pgUser.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	return &domain.User{
		ID:     id,
		Name:   pgUser.Name,
		Email:  pgUser.Email,
		Active: pgUser.Active,
		Timestamps: models.Timestamps{
			CreatedAt: pgUser.CreatedAt,
			UpdatedAt: pgUser.UpdatedAt,
			DeletedAt: pgUser.DeletedAt,
		},
		Version: models.Version{Value: pgUser.Version},
	}, nil
}
