package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/models"
)

var _ workflow.UserDirectory = (*UserClient)(nil)

// UserClient calls the user service over HTTP
type UserClient struct {
	baseURL string
	client  *http.Client
}

// NewUserClient creates a UserClient
func NewUserClient(baseURL string, client *http.Client) *UserClient {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &UserClient{
		baseURL: baseURL,
		client:  client,
	}
}

// GetUser fetches a user by id
func (c *UserClient) GetUser(ctx context.Context, userID models.ID) (*workflow.User, error) {
	url := fmt.Sprintf("%s/users/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "user service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, workflow.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("user service returned status %d", resp.StatusCode)
	}

	var user workflow.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "failed to decode user service response")
	}

	return &user, nil
}
