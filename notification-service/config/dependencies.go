package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/swiftcart/order-system/notification-service/application"
	"github.com/swiftcart/order-system/notification-service/handlers"
	"github.com/swiftcart/order-system/notification-service/infrastructure"
	sharedinfra "github.com/swiftcart/order-system/shared/infrastructure"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	NotificationRepository *infrastructure.PostgresNotificationRepository

	// Use Cases
	SendNotification *application.SendNotification

	// Event Handlers
	NotificationEventHandlers *handlers.NotificationEventHandlers

	// Infrastructure
	EventPublisher  *sharedinfra.SNSPublisherAdapter
	EventSubscriber *sharedinfra.SQSSubscriberAdapter
}

func BuildDependencies(config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize database
	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	deps.DB = db

	// Initialize AWS infrastructure
	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = eventPublisher

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL,
		sharedinfra.WithWorkers(config.Consumer.Workers),
		sharedinfra.WithReaders(config.Consumer.Readers),
		sharedinfra.WithVisibilityTimeout(config.Consumer.VisibilityTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.EventSubscriber = eventSubscriber

	// Initialize repositories
	deps.NotificationRepository = infrastructure.NewPostgresNotificationRepository(db)

	// Initialize use cases
	emailSender := infrastructure.NewSimulatedEmailSender(config.EmailDelay)
	deps.SendNotification = application.NewSendNotification(
		deps.NotificationRepository,
		emailSender,
		eventPublisher,
	)

	// Initialize handlers
	deps.NotificationEventHandlers = handlers.NewNotificationEventHandlers(deps.SendNotification)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
