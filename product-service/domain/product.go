package domain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// ErrProductNotFound is returned by repositories when no product matches
var ErrProductNotFound = errors.New("product not found")

// ErrInsufficientStock is returned when a reservation asks for more stock
// than is available
var ErrInsufficientStock = errors.New("insufficient stock")

// Product aggregate root
type Product struct {
	ID         models.ID
	Name       string
	Price      models.Money
	Stock      int
	Active     bool
	Timestamps models.Timestamps
	Version    models.Version

	events []*events.Event
}

// CreateProduct factory method
func CreateProduct(name string, price models.Money, stock int) (*Product, error) {
	if name == "" {
		return nil, errors.New("product name is required")
	}
	if !price.IsPositive() {
		return nil, errors.New("product price must be positive")
	}
	if stock < 0 {
		return nil, errors.New("initial stock cannot be negative")
	}

	return &Product{
		ID:         models.GenerateUUID(),
		Name:       name,
		Price:      price,
		Stock:      stock,
		Active:     true,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// HasStock reports whether the quantity is available
func (p *Product) HasStock(quantity int) bool {
	return p.Active && p.Stock >= quantity
}

// AdjustStock applies a delta to the stock level. Negative deltas reserve,
// positive deltas release. A reservation beyond the available stock is
// rejected with ErrInsufficientStock.
func (p *Product) AdjustStock(delta int) error {
	newStock := p.Stock + delta
	if newStock < 0 {
		return ErrInsufficientStock
	}

	p.Stock = newStock
	p.Timestamps = p.Timestamps.Update()
	p.Version = p.Version.Update()

	topic := events.StockAdjustedEvent
	switch {
	case delta < 0:
		topic = events.StockReservedEvent
	case delta > 0:
		topic = events.StockReleasedEvent
	}

	p.recordEvent(events.NewEvent(p.ID, topic, StockAdjustedData{
		ProductID: p.ID,
		Delta:     delta,
		NewStock:  p.Stock,
	}))
	return nil
}

// Deactivate takes the product off sale
func (p *Product) Deactivate() {
	p.Active = false
	p.Timestamps = p.Timestamps.Update()
	p.Version = p.Version.Update()
}

// Events returns domain events
func (p *Product) Events() []*events.Event {
	return p.events
}

// ClearEvents clears domain events
func (p *Product) ClearEvents() {
	p.events = make([]*events.Event, 0)
}

func (p *Product) recordEvent(event *events.Event) {
	p.events = append(p.events, event)
}

// StockAdjustedData is the payload of stock adjustment events
type StockAdjustedData struct {
	ProductID models.ID `json:"product_id"`
	Delta     int       `json:"delta"`
	NewStock  int       `json:"new_stock"`
}

// ProductRepository interface
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id models.ID) (*Product, error)
}
