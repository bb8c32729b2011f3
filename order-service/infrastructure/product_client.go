package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/cache"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
)

var _ workflow.ProductCatalog = (*ProductClient)(nil)

const productCacheTTL = 30 * time.Second

// ProductClient calls the product service over HTTP. Product lookups go
// through a short lived cache; stock operations always hit the service and
// invalidate the cached product.
type ProductClient struct {
	baseURL string
	client  *http.Client
	cache   cache.Cache
}

// NewProductClient creates a ProductClient
func NewProductClient(baseURL string, client *http.Client, c cache.Cache) *ProductClient {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &ProductClient{
		baseURL: baseURL,
		client:  client,
		cache:   c,
	}
}

// GetProduct fetches a product by id
func (c *ProductClient) GetProduct(ctx context.Context, productID models.ID) (*workflow.Product, error) {
	cacheKey := fmt.Sprintf("product:%s", productID)

	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var product workflow.Product
		if err := json.Unmarshal(cached, &product); err == nil {
			return &product, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("product cache read failed",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}

	var product workflow.Product
	url := fmt.Sprintf("%s/products/%s", c.baseURL, productID)
	if err := c.getJSON(ctx, url, &product); err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(product); err == nil {
		if err := c.cache.Set(ctx, cacheKey, encoded, productCacheTTL); err != nil {
			logger.Warn("product cache write failed",
				zap.String("product_id", productID.String()),
				zap.Error(err),
			)
		}
	}

	return &product, nil
}

// CheckStock asks the product service whether the quantity is available
func (c *ProductClient) CheckStock(ctx context.Context, productID models.ID, quantity int) (*workflow.StockCheck, error) {
	var check workflow.StockCheck
	url := fmt.Sprintf("%s/products/%s/stock?quantity=%d", c.baseURL, productID, quantity)
	if err := c.getJSON(ctx, url, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// UpdateStock applies a stock delta. Negative deltas reserve, positive
// deltas release.
func (c *ProductClient) UpdateStock(ctx context.Context, productID models.ID, delta int) (*workflow.StockUpdate, error) {
	body, err := json.Marshal(map[string]int{"delta": delta})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode stock update")
	}

	url := fmt.Sprintf("%s/products/%s/stock", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build stock update request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "product service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, workflow.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("product service returned status %d", resp.StatusCode)
	}

	var update workflow.StockUpdate
	if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
		return nil, errors.Wrap(err, "failed to decode stock update response")
	}

	cacheKey := fmt.Sprintf("product:%s", productID)
	if err := c.cache.Delete(ctx, cacheKey); err != nil {
		logger.Warn("product cache invalidation failed",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}

	return &update, nil
}

func (c *ProductClient) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "product service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return workflow.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("product service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode product service response")
	}
	return nil
}
