package infrastructure

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/notification-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// PostgresNotificationRepository implements NotificationRepository using PostgreSQL
type PostgresNotificationRepository struct {
	db *sqlx.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *sqlx.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

type postgresNotification struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	OrderID   string    `db:"order_id"`
	Type      string    `db:"type"`
	Subject   string    `db:"subject"`
	Body      string    `db:"body"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Version   int       `db:"version"`
}

// Save persists a notification
func (r *PostgresNotificationRepository) Save(ctx context.Context, notification *domain.Notification) error {
	if notification.Version.Value == 1 {
		query := `
			INSERT INTO notifications (
				id, user_id, order_id, type, subject, body, status,
				created_at, updated_at, version
			) VALUES (
				:id, :user_id, :order_id, :type, :subject, :body, :status,
				:created_at, :updated_at, :version
			)`

		_, err := r.db.NamedExecContext(ctx, query, r.toPostgres(notification))
		if err != nil {
			return errors.Wrap(err, "failed to insert notification")
		}
		return nil
	}

	query := `
		UPDATE notifications
		SET status = :status, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          notification.ID.String(),
		"status":      string(notification.Status),
		"updated_at":  notification.Timestamps.UpdatedAt,
		"version":     notification.Version.Value,
		"old_version": notification.Version.Value - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update notification")
	}

	return nil
}

// FindByOrderID finds notifications for an order, oldest first
func (r *PostgresNotificationRepository) FindByOrderID(ctx context.Context, orderID models.ID) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, order_id, type, subject, body, status,
			   created_at, updated_at, version
		FROM notifications
		WHERE order_id = $1
		ORDER BY created_at`

	var pgNotifications []postgresNotification
	err := r.db.SelectContext(ctx, &pgNotifications, query, orderID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to find notifications by order ID")
	}

	notifications := make([]*domain.Notification, len(pgNotifications))
	for i, pgNotification := range pgNotifications {
		notifications[i] = r.toDomain(&pgNotification)
	}

	return notifications, nil
}

func (r *PostgresNotificationRepository) toPostgres(notification *domain.Notification) *postgresNotification {
	return &postgresNotification{
		ID:        notification.ID.String(),
		UserID:    notification.UserID.String(),
		OrderID:   notification.OrderID.String(),
		Type:      notification.Type,
		Subject:   notification.Subject,
		Body:      notification.Body,
		Status:    string(notification.Status),
		CreatedAt: notification.Timestamps.CreatedAt,
		UpdatedAt: notification.Timestamps.UpdatedAt,
		Version:   notification.Version.Value,
	}
}

func (r *PostgresNotificationRepository) toDomain(pgNotification *postgresNotification) *domain.Notification {
	return &domain.Notification{
		ID:      models.ID(pgNotification.ID),
		UserID:  models.ID(pgNotification.UserID),
		OrderID: models.ID(pgNotification.OrderID),
		Type:    pgNotification.Type,
		Subject: pgNotification.Subject,
		Body:    pgNotification.Body,
		Status:  domain.NotificationStatus(pgNotification.Status),
		Timestamps: models.Timestamps{
			CreatedAt: pgNotification.CreatedAt,
			UpdatedAt: pgNotification.UpdatedAt,
		},
		Version: models.Version{Value: pgNotification.Version},
	}
}
