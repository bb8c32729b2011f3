package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/models"
)

var _ workflow.ShippingProvider = (*SimulatedShippingProvider)(nil)

// SimulatedShippingProvider stands in for a carrier integration. It accepts
// every shipment after a configurable handoff latency and returns a
// generated tracking number.
type SimulatedShippingProvider struct {
	latency time.Duration
}

// NewSimulatedShippingProvider creates a SimulatedShippingProvider
func NewSimulatedShippingProvider(latency time.Duration) *SimulatedShippingProvider {
	return &SimulatedShippingProvider{latency: latency}
}

// Ship hands the order to the carrier
func (p *SimulatedShippingProvider) Ship(ctx context.Context, orderID models.ID) (string, error) {
	if p.latency > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.latency):
		}
	}

	return fmt.Sprintf("TRACK-%s", uuid.New().String()[:8]), nil
}
