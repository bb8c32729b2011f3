package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/product-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// CheckStockQuery asks whether a quantity of a product is available
type CheckStockQuery struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CheckStockResponse represents the availability answer
type CheckStockResponse struct {
	Available    bool `json:"available"`
	CurrentStock int  `json:"current_stock"`
}

// CheckStock use case
type CheckStock struct {
	productRepository domain.ProductRepository
}

// NewCheckStock creates a new CheckStock use case
func NewCheckStock(productRepository domain.ProductRepository) *CheckStock {
	return &CheckStock{productRepository: productRepository}
}

// Execute executes the check stock use case
func (uc *CheckStock) Execute(ctx context.Context, query *CheckStockQuery) (*CheckStockResponse, error) {
	productID, err := models.NewID(query.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product ID")
	}
	if query.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}

	product, err := uc.productRepository.FindByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find product")
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	return &CheckStockResponse{
		Available:    product.HasStock(query.Quantity),
		CurrentStock: product.Stock,
	}, nil
}
