package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/swiftcart/order-system/product-service/application"
	"github.com/swiftcart/order-system/product-service/handlers"
	"github.com/swiftcart/order-system/product-service/infrastructure"
	sharedinfra "github.com/swiftcart/order-system/shared/infrastructure"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	ProductRepository *infrastructure.PostgresProductRepository

	// Use Cases
	CreateProduct *application.CreateProduct
	GetProduct    *application.GetProduct
	CheckStock    *application.CheckStock
	AdjustStock   *application.AdjustStock

	// HTTP Handlers
	ProductHandlers *handlers.ProductHandlers

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
	deps.ProductRepository = infrastructure.NewPostgresProductRepository(db)

	// Initialize use cases
	deps.CreateProduct = application.NewCreateProduct(deps.ProductRepository, eventPublisher)
	deps.GetProduct = application.NewGetProduct(deps.ProductRepository)
	deps.CheckStock = application.NewCheckStock(deps.ProductRepository)
	deps.AdjustStock = application.NewAdjustStock(deps.ProductRepository, eventPublisher)

	// Initialize handlers
	deps.ProductHandlers = handlers.NewProductHandlers(
		deps.CreateProduct,
		deps.GetProduct,
		deps.CheckStock,
		deps.AdjustStock,
	)

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
