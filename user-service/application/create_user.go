package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/user-service/domain"
)

// CreateUserCommand represents the command to create a user
type CreateUserCommand struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateUserResponse represents the response after creating a user
type CreateUserResponse struct {
	UserID string `json:"user_id"`
}

// CreateUser use case
type CreateUser struct {
	userRepository domain.UserRepository
	eventPublisher events.Publisher
}

// NewCreateUser creates a new CreateUser use case
func NewCreateUser(userRepository domain.UserRepository, eventPublisher events.Publisher) *CreateUser {
	return &CreateUser{
		userRepository: userRepository,
		eventPublisher: eventPublisher,
	}
}

// Execute executes the create user use case
func (uc *CreateUser) Execute(ctx context.Context, cmd *CreateUserCommand) (*CreateUserResponse, error) {
	user, err := domain.CreateUser(cmd.Name, cmd.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}

	if err := uc.userRepository.Save(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to save user")
	}

	if err := uc.eventPublisher.Publish(ctx, user.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	user.ClearEvents()

	return &CreateUserResponse{UserID: user.ID.String()}, nil
}
