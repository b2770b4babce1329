package scm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vvatanabe/scm/internal/clock"
)

// MemoryClientOptions configures the in-memory client.
type MemoryClientOptions struct {
	// Clock supplies creation and checkpoint timestamps.
	Clock clock.Clock
	// IDGenerator assigns shipment, checkpoint and notification IDs.
	IDGenerator func() string
	// Seed returns the shipments the store starts with. It may be nil.
	Seed func(now time.Time) []Shipment
}

// WithClock replaces the clock used for timestamps.
func WithClock(c clock.Clock) func(*MemoryClientOptions) {
	return func(o *MemoryClientOptions) {
		o.Clock = c
	}
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(f func() string) func(*MemoryClientOptions) {
	return func(o *MemoryClientOptions) {
		o.IDGenerator = f
	}
}

// WithSeedShipments replaces the default seed data. Called with no arguments
// the store starts empty.
func WithSeedShipments(shipments ...Shipment) func(*MemoryClientOptions) {
	return func(o *MemoryClientOptions) {
		o.Seed = func(time.Time) []Shipment {
			return shipments
		}
	}
}

// NewMemoryClient creates a process-lifetime store seeded with SeedShipments
// unless WithSeedShipments says otherwise. Seeding raises no notifications.
func NewMemoryClient(optFns ...func(*MemoryClientOptions)) Client {
	o := &MemoryClientOptions{
		Clock:       &clock.RealClock{},
		IDGenerator: uuid.NewString,
		Seed:        SeedShipments,
	}
	for _, opt := range optFns {
		opt(o)
	}
	c := &MemoryClient{
		clock:       o.Clock,
		idGenerator: o.IDGenerator,
		shipments:   make(map[string]*Shipment),
	}
	if o.Seed != nil {
		for _, s := range o.Seed(o.Clock.Now()) {
			c.insert(s.Clone())
		}
	}
	return c
}

// MemoryClient is the in-memory implementation of Client.
// Use NewMemoryClient to create one.
type MemoryClient struct {
	mu            sync.RWMutex
	clock         clock.Clock
	idGenerator   func() string
	shipments     map[string]*Shipment
	order         []string
	notifications []*Notification
}

func (c *MemoryClient) insert(s *Shipment) {
	if _, ok := c.shipments[s.ID]; !ok {
		c.order = append(c.order, s.ID)
	}
	c.shipments[s.ID] = s
}

func (c *MemoryClient) prependNotification(n *Notification) {
	c.notifications = append([]*Notification{n}, c.notifications...)
}

func (c *MemoryClient) now() string {
	return clock.FormatRFC3339Nano(c.clock.Now())
}

func (c *MemoryClient) ListShipments(ctx context.Context, _ *ListShipmentsInput) (*ListShipmentsOutput, error) {
	if err := checkContext(ctx); err != nil {
		return &ListShipmentsOutput{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	shipments := make([]*Shipment, 0, len(c.order))
	for _, id := range c.order {
		shipments = append(shipments, c.shipments[id].Clone())
	}
	return &ListShipmentsOutput{Shipments: shipments}, nil
}

func (c *MemoryClient) GetShipment(ctx context.Context, params *GetShipmentInput) (*GetShipmentOutput, error) {
	if params == nil {
		params = &GetShipmentInput{}
	}
	if err := checkContext(ctx); err != nil {
		return &GetShipmentOutput{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &GetShipmentOutput{Shipment: c.shipments[params.ID].Clone()}, nil
}

func (c *MemoryClient) CreateShipment(ctx context.Context, params *CreateShipmentInput) (*CreateShipmentOutput, error) {
	if params == nil {
		params = &CreateShipmentInput{}
	}
	if err := checkContext(ctx); err != nil {
		return &CreateShipmentOutput{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := params.newShipment(c.idGenerator())
	n := newCreatedNotification(c.idGenerator(), s, c.now())
	c.insert(s)
	c.prependNotification(n)
	return &CreateShipmentOutput{
		Shipment:     s.Clone(),
		Notification: n.Clone(),
	}, nil
}

func (c *MemoryClient) UpdateShipment(ctx context.Context, params *UpdateShipmentInput) (*UpdateShipmentOutput, error) {
	if params == nil {
		params = &UpdateShipmentInput{}
	}
	if err := checkContext(ctx); err != nil {
		return &UpdateShipmentOutput{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	stored, ok := c.shipments[params.ID]
	if !ok {
		return &UpdateShipmentOutput{}, nil
	}
	now := c.now()
	updated := stored.Clone()
	params.apply(updated)
	if params.AddCheckpoint != nil {
		updated.Checkpoints = append(updated.Checkpoints, newCheckpoint(c.idGenerator(), params.AddCheckpoint, now))
	}
	n := newUpdatedNotification(c.idGenerator(), updated, now)
	c.shipments[updated.ID] = updated
	c.prependNotification(n)
	return &UpdateShipmentOutput{
		Shipment:     updated.Clone(),
		Notification: n.Clone(),
	}, nil
}

func (c *MemoryClient) ListNotifications(ctx context.Context, _ *ListNotificationsInput) (*ListNotificationsOutput, error) {
	if err := checkContext(ctx); err != nil {
		return &ListNotificationsOutput{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	notifications := make([]*Notification, 0, len(c.notifications))
	for _, n := range c.notifications {
		notifications = append(notifications, n.Clone())
	}
	sortNewestFirst(notifications)
	return &ListNotificationsOutput{Notifications: notifications}, nil
}

func (c *MemoryClient) MarkNotificationRead(ctx context.Context, params *MarkNotificationReadInput) (*MarkNotificationReadOutput, error) {
	if params == nil {
		params = &MarkNotificationReadInput{}
	}
	if err := checkContext(ctx); err != nil {
		return &MarkNotificationReadOutput{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.notifications {
		if n.ID == params.ID {
			n.Read = true
			return &MarkNotificationReadOutput{Notification: n.Clone()}, nil
		}
	}
	return &MarkNotificationReadOutput{}, nil
}

func (c *MemoryClient) GetPerformanceMetrics(ctx context.Context, _ *GetPerformanceMetricsInput) (*GetPerformanceMetricsOutput, error) {
	if err := checkContext(ctx); err != nil {
		return &GetPerformanceMetricsOutput{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	shipments := make([]*Shipment, 0, len(c.order))
	for _, id := range c.order {
		shipments = append(shipments, c.shipments[id])
	}
	return newPerformanceMetricsOutput(shipments), nil
}
