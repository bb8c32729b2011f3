package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/swiftcart/order-system/order-service/application"
	"github.com/swiftcart/order-system/order-service/handlers"
	"github.com/swiftcart/order-system/order-service/infrastructure"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/cache"
	sharedinfra "github.com/swiftcart/order-system/shared/infrastructure"
	"github.com/swiftcart/order-system/shared/models"
	"github.com/swiftcart/order-system/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories and stores
	OrderRepository *infrastructure.PostgresOrderRepository
	WorkflowStore   *infrastructure.PostgresWorkflowStore

	// Workflow runtime
	WorkflowRunner *workflow.Runner
	WorkflowClient *workflow.Client

	// Use Cases
	CreateOrder       *application.CreateOrder
	GetOrder          *application.GetOrder
	ApproveOrder      *application.ApproveOrder
	GetWorkflowStatus *application.GetWorkflowStatus

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Infrastructure
	EventPublisher *sharedinfra.SNSPublisherAdapter
	RedisClient    *redis.Client

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.OrderServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			log.Printf("Failed to initialize telemetry: %v", err)
			// Continue without telemetry rather than failing
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

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

	// Initialize the product cache
	productCache, redisClient := newProductCache(config)
	deps.RedisClient = redisClient

	// Initialize repositories and stores
	deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
	deps.WorkflowStore = infrastructure.NewPostgresWorkflowStore(db)

	// Initialize collaborator clients and simulated providers
	productClient := infrastructure.NewProductClient(config.Services.ProductServiceURL, nil, productCache)
	userClient := infrastructure.NewUserClient(config.Services.UserServiceURL, nil)
	paymentGateway := infrastructure.NewSimulatedPaymentGateway(
		models.NewMoney(config.Workflow.PaymentDeclineThresholdCents, config.Workflow.Currency),
		config.Workflow.PaymentLatency,
	)
	shippingProvider := infrastructure.NewSimulatedShippingProvider(config.Workflow.ShippingLatency)

	// Initialize workflow runtime
	activities := workflow.NewActivities(
		userClient,
		productClient,
		deps.OrderRepository,
		eventPublisher,
		paymentGateway,
		shippingProvider,
		workflow.ValidationPolicy(config.Workflow.ValidateOnUnreachable),
	)
	orchestrator := workflow.NewOrchestrator(activities, workflow.Config{
		ApprovalThreshold: models.NewMoney(config.Workflow.ApprovalThresholdCents, config.Workflow.Currency),
		ApprovalTimeout:   config.Workflow.ApprovalTimeout,
		ShippingDelay:     config.Workflow.ShippingDelay,
	})
	deps.WorkflowRunner = workflow.NewRunner(
		deps.WorkflowStore,
		orchestrator,
		eventPublisher,
		workflow.WithPollInterval(config.Workflow.PollInterval),
		workflow.WithMaxActivityRetries(config.Workflow.MaxActivityRetries),
	)
	deps.WorkflowClient = workflow.NewClient(deps.WorkflowStore, deps.OrderRepository, deps.WorkflowRunner, eventPublisher)

	// Initialize use cases
	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, eventPublisher, deps.WorkflowClient)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.ApproveOrder = application.NewApproveOrder(deps.WorkflowClient)
	deps.GetWorkflowStatus = application.NewGetWorkflowStatus(deps.WorkflowClient)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(
		deps.CreateOrder,
		deps.GetOrder,
		deps.ApproveOrder,
		deps.GetWorkflowStatus,
	)

	return deps, nil
}

// newProductCache picks the product cache backend: Redis when an address
// is configured, in-process for runs without one.
func newProductCache(config *Config) (cache.Cache, *redis.Client) {
	if config.Redis.Addr == "" {
		return cache.NewMemoryCache(time.Minute), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	return cache.NewRedisCache(client, config.ServiceName), client
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.WorkflowRunner != nil {
		d.WorkflowRunner.Stop()
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.RedisClient != nil {
		if err := d.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
