package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// fakeClock is a manually advanced time source shared by the runner and
// the assertions
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeOrderRepo is an in-memory domain.OrderRepository
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[models.ID]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[models.ID]*domain.Order)}
}

func (r *fakeOrderRepo) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id models.ID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) FindByUserID(_ context.Context, userID models.ID) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			copied := *order
			found = append(found, &copied)
		}
	}
	return found, nil
}

func (r *fakeOrderRepo) status(t *testing.T, id models.ID) domain.OrderStatus {
	t.Helper()
	order, err := r.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order.Status
}

// fakeUserDirectory serves a fixed set of users and can simulate an outage
type fakeUserDirectory struct {
	mu          sync.Mutex
	users       map[models.ID]*User
	unreachable bool
}

func newFakeUserDirectory() *fakeUserDirectory {
	return &fakeUserDirectory{users: make(map[models.ID]*User)}
}

func (d *fakeUserDirectory) add(user *User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

func (d *fakeUserDirectory) GetUser(_ context.Context, userID models.ID) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unreachable {
		return nil, errors.New("connection refused")
	}
	user, ok := d.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// fakeCatalog tracks stock levels and counts stock mutations
type fakeCatalog struct {
	mu          sync.Mutex
	products    map[models.ID]*Product
	unreachable bool
	failUpdate  map[models.ID]bool
	updateCalls int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:   make(map[models.ID]*Product),
		failUpdate: make(map[models.ID]bool),
	}
}

func (c *fakeCatalog) add(product *Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = product
}

func (c *fakeCatalog) stock(t *testing.T, productID models.ID) int {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	product, ok := c.products[productID]
	require.True(t, ok)
	return product.Stock
}

func (c *fakeCatalog) GetProduct(_ context.Context, productID models.ID) (*Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unreachable {
		return nil, errors.New("connection refused")
	}
	product, ok := c.products[productID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *product
	return &copied, nil
}

func (c *fakeCatalog) CheckStock(_ context.Context, productID models.ID, quantity int) (*StockCheck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unreachable {
		return nil, errors.New("connection refused")
	}
	product, ok := c.products[productID]
	if !ok {
		return nil, ErrNotFound
	}
	return &StockCheck{
		Available:    product.Active && product.Stock >= quantity,
		CurrentStock: product.Stock,
	}, nil
}

func (c *fakeCatalog) UpdateStock(_ context.Context, productID models.ID, delta int) (*StockUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCalls++
	if c.unreachable || c.failUpdate[productID] {
		return nil, errors.New("connection refused")
	}
	product, ok := c.products[productID]
	if !ok {
		return nil, ErrNotFound
	}
	newStock := product.Stock + delta
	if newStock < 0 {
		return &StockUpdate{Success: false, NewStock: product.Stock}, nil
	}
	product.Stock = newStock
	return &StockUpdate{Success: true, NewStock: newStock}, nil
}

// fakeGateway declines charges at or above its threshold
type fakeGateway struct {
	mu               sync.Mutex
	declineThreshold models.Money
	charges          int
}

func (g *fakeGateway) Charge(_ context.Context, _ models.ID, amount models.Money) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges++
	if g.declineThreshold.Amount > 0 && amount.GreaterOrEqual(g.declineThreshold) {
		return ErrPaymentDeclined
	}
	return nil
}

func (g *fakeGateway) chargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.charges
}

// fakeShipper accepts every shipment
type fakeShipper struct {
	mu        sync.Mutex
	shipments int
}

func (s *fakeShipper) Ship(_ context.Context, _ models.ID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments++
	return "TRACK-TEST", nil
}

func (s *fakeShipper) shipmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shipments
}

// capturePublisher records every published event
type capturePublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *capturePublisher) Publish(_ context.Context, evts ...*events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *capturePublisher) topics() []events.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]events.Topic, len(p.events))
	for i, event := range p.events {
		topics[i] = event.Topic
	}
	return topics
}

func (p *capturePublisher) notificationTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, event := range p.events {
		if event.Topic != events.NotificationRequestedEvent {
			continue
		}
		if input, ok := event.Data.(NotificationInput); ok {
			types = append(types, input.Type)
		}
	}
	return types
}

// testEnv wires the workflow runtime against in-memory fakes
type testEnv struct {
	store     *MemoryStore
	orders    *fakeOrderRepo
	users     *fakeUserDirectory
	catalog   *fakeCatalog
	gateway   *fakeGateway
	shipper   *fakeShipper
	publisher *capturePublisher
	clock     *fakeClock
	runner    *Runner
	client    *Client

	config Config
	userID models.ID
}

func newTestEnv(t *testing.T, opts ...func(*testEnv)) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     NewMemoryStore(),
		orders:    newFakeOrderRepo(),
		users:     newFakeUserDirectory(),
		catalog:   newFakeCatalog(),
		gateway:   &fakeGateway{declineThreshold: models.NewMoney(500000, "USD")},
		shipper:   &fakeShipper{},
		publisher: &capturePublisher{},
		clock:     newFakeClock(),
		config: Config{
			ApprovalThreshold: models.NewMoney(100000, "USD"),
			ApprovalTimeout:   30 * time.Minute,
			ShippingDelay:     24 * time.Hour,
		},
		userID: models.GenerateUUID(),
	}
	env.users.add(&User{ID: env.userID, Name: "Ada", Email: "ada@example.com", Active: true})

	for _, opt := range opts {
		opt(env)
	}

	env.rebuild(ValidationStrict)
	return env
}

// rebuild recreates the orchestrator, runner and client on the same store
// and fakes, as a process restart would.
func (e *testEnv) rebuild(policy ValidationPolicy) {
	activities := NewActivities(e.users, e.catalog, e.orders, e.publisher, e.gateway, e.shipper, policy)
	orchestrator := NewOrchestrator(activities, e.config)
	e.runner = NewRunner(e.store, orchestrator, e.publisher, WithClock(e.clock.Now))
	e.client = NewClient(e.store, e.orders, e.runner, e.publisher)
}

func (e *testEnv) seedProduct(t *testing.T, priceCents int64, stock int) models.ID {
	t.Helper()
	id := models.GenerateUUID()
	e.catalog.add(&Product{
		ID:     id,
		Name:   "widget",
		Price:  models.NewMoney(priceCents, "USD"),
		Stock:  stock,
		Active: true,
	})
	return id
}

func (e *testEnv) placeOrder(t *testing.T, items ...domain.OrderItem) *domain.Order {
	t.Helper()
	order, err := domain.CreateOrder(e.userID, items)
	require.NoError(t, err)
	require.NoError(t, e.orders.Save(context.Background(), order))
	order.ClearEvents()
	return order
}

func (e *testEnv) instance(t *testing.T, id models.ID) *Instance {
	t.Helper()
	instance, err := e.store.Instance(context.Background(), id)
	require.NoError(t, err)
	return instance
}
