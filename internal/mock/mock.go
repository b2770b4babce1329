package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vvatanabe/scm"
)

var ErrNotImplemented = errors.New("not implemented")

type Client struct {
	ListShipmentsFunc         func(ctx context.Context, params *scm.ListShipmentsInput) (*scm.ListShipmentsOutput, error)
	GetShipmentFunc           func(ctx context.Context, params *scm.GetShipmentInput) (*scm.GetShipmentOutput, error)
	CreateShipmentFunc        func(ctx context.Context, params *scm.CreateShipmentInput) (*scm.CreateShipmentOutput, error)
	UpdateShipmentFunc        func(ctx context.Context, params *scm.UpdateShipmentInput) (*scm.UpdateShipmentOutput, error)
	ListNotificationsFunc     func(ctx context.Context, params *scm.ListNotificationsInput) (*scm.ListNotificationsOutput, error)
	MarkNotificationReadFunc  func(ctx context.Context, params *scm.MarkNotificationReadInput) (*scm.MarkNotificationReadOutput, error)
	GetPerformanceMetricsFunc func(ctx context.Context, params *scm.GetPerformanceMetricsInput) (*scm.GetPerformanceMetricsOutput, error)
}

func (m Client) ListShipments(ctx context.Context, params *scm.ListShipmentsInput) (*scm.ListShipmentsOutput, error) {
	if m.ListShipmentsFunc != nil {
		return m.ListShipmentsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Client) GetShipment(ctx context.Context, params *scm.GetShipmentInput) (*scm.GetShipmentOutput, error) {
	if m.GetShipmentFunc != nil {
		return m.GetShipmentFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Client) CreateShipment(ctx context.Context, params *scm.CreateShipmentInput) (*scm.CreateShipmentOutput, error) {
	if m.CreateShipmentFunc != nil {
		return m.CreateShipmentFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Client) UpdateShipment(ctx context.Context, params *scm.UpdateShipmentInput) (*scm.UpdateShipmentOutput, error) {
	if m.UpdateShipmentFunc != nil {
		return m.UpdateShipmentFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Client) ListNotifications(ctx context.Context, params *scm.ListNotificationsInput) (*scm.ListNotificationsOutput, error) {
	if m.ListNotificationsFunc != nil {
		return m.ListNotificationsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Client) MarkNotificationRead(ctx context.Context, params *scm.MarkNotificationReadInput) (*scm.MarkNotificationReadOutput, error) {
	if m.MarkNotificationReadFunc != nil {
		return m.MarkNotificationReadFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Client) GetPerformanceMetrics(ctx context.Context, params *scm.GetPerformanceMetricsInput) (*scm.GetPerformanceMetricsOutput, error) {
	if m.GetPerformanceMetricsFunc != nil {
		return m.GetPerformanceMetricsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

type Clock struct {
	T time.Time
}

func (m Clock) Now() time.Time {
	return m.T
}

// StepClock starts at T and moves forward by Step on every call to Now.
type StepClock struct {
	mu   sync.Mutex
	T    time.Time
	Step time.Duration
}

func (m *StepClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.T
	m.T = m.T.Add(m.Step)
	return now
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
