package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/shared/events"
)

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name          string
		userName      string
		email         string
		expectedError string
	}{
		{
			name:     "creates an active user",
			userName: "Ada",
			email:    "ada@example.com",
		},
		{
			name:          "rejects an empty name",
			email:         "ada@example.com",
			expectedError: "user name is required",
		},
		{
			name:          "rejects a malformed email",
			userName:      "Ada",
			email:         "not-an-email",
			expectedError: "valid email is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := CreateUser(tt.userName, tt.email)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.True(t, user.Active)
			require.Len(t, user.Events(), 1)
			assert.Equal(t, events.UserCreatedEvent, user.Events()[0].Topic)
		})
	}
}

func TestDeactivate(t *testing.T) {
	user, err := CreateUser("Ada", "ada@example.com")
	require.NoError(t, err)

	initialVersion := user.Version.Value
	user.Deactivate()

	assert.False(t, user.Active)
	assert.Equal(t, initialVersion+1, user.Version.Value)
}
