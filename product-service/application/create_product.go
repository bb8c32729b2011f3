package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/product-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// CreateProductCommand represents the command to create a product
type CreateProductCommand struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Stock    int    `json:"stock"`
}

// CreateProductResponse represents the response after creating a product
type CreateProductResponse struct {
	ProductID string `json:"product_id"`
}

// CreateProduct use case
type CreateProduct struct {
	productRepository domain.ProductRepository
	eventPublisher    events.Publisher
}

// NewCreateProduct creates a new CreateProduct use case
func NewCreateProduct(productRepository domain.ProductRepository, eventPublisher events.Publisher) *CreateProduct {
	return &CreateProduct{
		productRepository: productRepository,
		eventPublisher:    eventPublisher,
	}
}

// Execute executes the create product use case
func (uc *CreateProduct) Execute(ctx context.Context, cmd *CreateProductCommand) (*CreateProductResponse, error) {
	if cmd.Name == "" {
		return nil, errors.New("product name is required")
	}
	if cmd.Price <= 0 {
		return nil, errors.New("price must be positive")
	}
	if cmd.Currency == "" {
		return nil, errors.New("currency is required")
	}

	product, err := domain.CreateProduct(cmd.Name, models.NewMoney(cmd.Price, cmd.Currency), cmd.Stock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create product")
	}

	if err := uc.productRepository.Save(ctx, product); err != nil {
		return nil, errors.Wrap(err, "failed to save product")
	}

	if err := uc.eventPublisher.Publish(ctx, product.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	product.ClearEvents()

	return &CreateProductResponse{ProductID: product.ID.String()}, nil
}
