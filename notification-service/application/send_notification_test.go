package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/notification-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

type mockNotificationRepository struct {
	mock.Mock
}

func (m *mockNotificationRepository) Save(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *mockNotificationRepository) FindByOrderID(ctx context.Context, orderID models.ID) ([]*domain.Notification, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

func TestSendNotification_Execute(t *testing.T) {
	command := &SendNotificationCommand{
		OrderID: models.GenerateUUID(),
		UserID:  models.GenerateUUID(),
		Type:    "OrderConfirmed",
	}

	tests := []struct {
		name          string
		command       *SendNotificationCommand
		setupMocks    func(repo *mockNotificationRepository, sender *mockSender, publisher *mockPublisher)
		expectedError string
	}{
		{
			name:    "renders, delivers and announces the notification",
			command: command,
			setupMocks: func(repo *mockNotificationRepository, sender *mockSender, publisher *mockPublisher) {
				repo.On("Save", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
					return n.Status == domain.NotificationStatusPending && n.Subject == "Your order is confirmed"
				})).Return(nil).Once()
				sender.On("Send", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil).Once()
				repo.On("Save", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
					return n.Status == domain.NotificationStatusSent
				})).Return(nil).Once()
				publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:    "delivery failure is recorded, not escalated",
			command: command,
			setupMocks: func(repo *mockNotificationRepository, sender *mockSender, publisher *mockPublisher) {
				repo.On("Save", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
					return n.Status == domain.NotificationStatusPending
				})).Return(nil).Once()
				sender.On("Send", mock.Anything, mock.AnythingOfType("*domain.Notification")).
					Return(errors.New("smtp unavailable")).Once()
				repo.On("Save", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
					return n.Status == domain.NotificationStatusFailed
				})).Return(nil).Once()
			},
		},
		{
			name: "missing user id is rejected",
			command: &SendNotificationCommand{
				OrderID: models.GenerateUUID(),
				Type:    "OrderConfirmed",
			},
			setupMocks:    func(*mockNotificationRepository, *mockSender, *mockPublisher) {},
			expectedError: "user ID is required",
		},
		{
			name:    "propagates repository failures",
			command: command,
			setupMocks: func(repo *mockNotificationRepository, sender *mockSender, publisher *mockPublisher) {
				repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Notification")).
					Return(errors.New("connection refused")).Once()
			},
			expectedError: "failed to save notification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockNotificationRepository{}
			sender := &mockSender{}
			publisher := &mockPublisher{}
			tt.setupMocks(repo, sender, publisher)

			uc := NewSendNotification(repo, sender, publisher)
			err := uc.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				require.NoError(t, err)
			}

			repo.AssertExpectations(t)
			sender.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestRenderTemplate(t *testing.T) {
	orderID := models.ID("11111111-1111-1111-1111-111111111111")

	tests := []struct {
		notificationType string
		expectedSubject  string
	}{
		{notificationType: "OrderConfirmed", expectedSubject: "Your order is confirmed"},
		{notificationType: "OrderShipped", expectedSubject: "Your order has shipped"},
		{notificationType: "OrderCancelled", expectedSubject: "Your order was cancelled"},
		{notificationType: "SomethingElse", expectedSubject: "Order update"},
	}

	for _, tt := range tests {
		t.Run(tt.notificationType, func(t *testing.T) {
			subject, body := renderTemplate(tt.notificationType, orderID)

			assert.Equal(t, tt.expectedSubject, subject)
			assert.Contains(t, body, orderID.String())
		})
	}
}
