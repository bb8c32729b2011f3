package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/product-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// AdjustStockCommand applies a stock delta to a product. Negative deltas
// reserve stock, positive deltas release it.
type AdjustStockCommand struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

// AdjustStockResponse reports the adjustment outcome. An insufficient
// reservation is a business answer, not an error.
type AdjustStockResponse struct {
	Success  bool `json:"success"`
	NewStock int  `json:"new_stock"`
}

// AdjustStock use case
type AdjustStock struct {
	productRepository domain.ProductRepository
	eventPublisher    events.Publisher
}

// NewAdjustStock creates a new AdjustStock use case
func NewAdjustStock(productRepository domain.ProductRepository, eventPublisher events.Publisher) *AdjustStock {
	return &AdjustStock{
		productRepository: productRepository,
		eventPublisher:    eventPublisher,
	}
}

// Execute executes the adjust stock use case
func (uc *AdjustStock) Execute(ctx context.Context, cmd *AdjustStockCommand) (*AdjustStockResponse, error) {
	productID, err := models.NewID(cmd.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product ID")
	}
	if cmd.Delta == 0 {
		return nil, errors.New("delta cannot be zero")
	}

	product, err := uc.productRepository.FindByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find product")
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	if err := product.AdjustStock(cmd.Delta); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return &AdjustStockResponse{
				Success:  false,
				NewStock: product.Stock,
			}, nil
		}
		return nil, errors.Wrap(err, "failed to adjust stock")
	}

	if err := uc.productRepository.Save(ctx, product); err != nil {
		return nil, errors.Wrap(err, "failed to save product")
	}

	if err := uc.eventPublisher.Publish(ctx, product.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	product.ClearEvents()

	return &AdjustStockResponse{
		Success:  true,
		NewStock: product.Stock,
	}, nil
}
