package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	sharedinfra "github.com/swiftcart/order-system/shared/infrastructure"
	"github.com/swiftcart/order-system/user-service/application"
	"github.com/swiftcart/order-system/user-service/handlers"
	"github.com/swiftcart/order-system/user-service/infrastructure"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	UserRepository *infrastructure.PostgresUserRepository

	// Use Cases
	CreateUser *application.CreateUser
	GetUser    *application.GetUser

	// HTTP Handlers
	UserHandlers *handlers.UserHandlers

	// Infrastructure
	EventPublisher *sharedinfra.SNSPublisherAdapter
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

	// Initialize repositories
	deps.UserRepository = infrastructure.NewPostgresUserRepository(db)

	// Initialize use cases
	deps.CreateUser = application.NewCreateUser(deps.UserRepository, eventPublisher)
	deps.GetUser = application.NewGetUser(deps.UserRepository)

	// Initialize handlers
	deps.UserHandlers = handlers.NewUserHandlers(deps.CreateUser, deps.GetUser)

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

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
