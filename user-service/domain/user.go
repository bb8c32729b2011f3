package domain

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// ErrUserNotFound is returned by repositories when no user matches
var ErrUserNotFound = errors.New("user not found")

// User aggregate root
type User struct {
	ID         models.ID
	Name       string
	Email      string
	Active     bool
	Timestamps models.Timestamps
	Version    models.Version

	events []*events.Event
}

// CreateUser factory method
func CreateUser(name, email string) (*User, error) {
	if name == "" {
		return nil, errors.New("user name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, errors.New("valid email is required")
	}

	user := &User{
		ID:         models.GenerateUUID(),
		Name:       name,
		Email:      email,
		Active:     true,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}

	user.recordEvent(events.NewEvent(user.ID, events.UserCreatedEvent, UserCreatedData{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}))
	return user, nil
}

// Deactivate blocks the user from placing orders
func (u *User) Deactivate() {
	u.Active = false
	u.Timestamps = u.Timestamps.Update()
	u.Version = u.Version.Update()
}

// Events returns domain events
func (u *User) Events() []*events.Event {
	return u.events
}

// ClearEvents clears domain events
func (u *User) ClearEvents() {
	u.events = make([]*events.Event, 0)
}

func (u *User) recordEvent(event *events.Event) {
	u.events = append(u.events, event)
}

// UserCreatedData is the payload of the user created event
type UserCreatedData struct {
	UserID models.ID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}

// UserRepository interface
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id models.ID) (*User, error)
}
