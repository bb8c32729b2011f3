package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibilityBackoff(t *testing.T) {
	options := &sqsSubscriberOptions{
		visibilityTimeout:       30,
		receiveCountRange:       3,
		visibilityTimeoutOffset: 30,
		maxVisibilityTimeout:    900,
	}

	tests := []struct {
		name         string
		receiveCount int32
		expected     int32
	}{
		{name: "first delivery keeps the base timeout", receiveCount: 1, expected: 30},
		{name: "grows once per receive count range", receiveCount: 3, expected: 60},
		{name: "keeps growing with redeliveries", receiveCount: 9, expected: 120},
		{name: "caps at the maximum", receiveCount: 100, expected: 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, options.visibilityBackoff(tt.receiveCount))
		})
	}
}

func TestSubscriberOptions(t *testing.T) {
	subscriber := NewSQSEventSubscriber(nil, "http://localhost:4566/000000000000/notification-events", nil,
		WithWorkers(4),
		WithReaders(2),
		WithVisibilityTimeout(60),
	)

	assert.Equal(t, int32(4), subscriber.options.workers)
	assert.Equal(t, int32(2), subscriber.options.readers)
	assert.Equal(t, int32(60), subscriber.options.visibilityTimeout)
}
