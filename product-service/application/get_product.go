package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/product-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// GetProductQuery represents the query to get a product
type GetProductQuery struct {
	ProductID string `json:"product_id"`
}

// GetProductResponse represents the product read model
type GetProductResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Price  Price  `json:"price"`
	Stock  int    `json:"stock"`
	Active bool   `json:"active"`
}

// Price mirrors the wire shape of a money value
type Price struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// GetProduct use case
type GetProduct struct {
	productRepository domain.ProductRepository
}

// NewGetProduct creates a new GetProduct use case
func NewGetProduct(productRepository domain.ProductRepository) *GetProduct {
	return &GetProduct{productRepository: productRepository}
}

// Execute executes the get product use case
func (uc *GetProduct) Execute(ctx context.Context, query *GetProductQuery) (*GetProductResponse, error) {
	productID, err := models.NewID(query.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product ID")
	}

	product, err := uc.productRepository.FindByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find product")
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	return &GetProductResponse{
		ID:   product.ID.String(),
		Name: product.Name,
		Price: Price{
			Amount:   product.Price.Amount,
			Currency: product.Price.Currency,
		},
		Stock:  product.Stock,
		Active: product.Active,
	}, nil
}
