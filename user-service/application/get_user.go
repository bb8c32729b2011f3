package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/models"
	"github.com/swiftcart/order-system/user-service/domain"
)

// GetUserQuery represents the query to get a user
type GetUserQuery struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents the user read model
type GetUserResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// GetUser use case
type GetUser struct {
	userRepository domain.UserRepository
}

// NewGetUser creates a new GetUser use case
func NewGetUser(userRepository domain.UserRepository) *GetUser {
	return &GetUser{userRepository: userRepository}
}

// Execute executes the get user use case
func (uc *GetUser) Execute(ctx context.Context, query *GetUserQuery) (*GetUserResponse, error) {
	userID, err := models.NewID(query.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	user, err := uc.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	return &GetUserResponse{
		ID:     user.ID.String(),
		Name:   user.Name,
		Email:  user.Email,
		Active: user.Active,
	}, nil
}
