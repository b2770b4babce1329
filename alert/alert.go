// Package alert keeps the user-facing alert list shown next to the shipment views.
//
// Alerts are independent of scm notifications: they have their own fields,
// can be deleted and cleared, and nothing keeps the two lists in sync.
package alert

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vvatanabe/scm/internal/clock"
)

// Kind is the severity an alert is shown with.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Alert is one entry of the UI feed.
type Alert struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Options configures a Feed.
type Options struct {
	Clock       clock.Clock
	IDGenerator func() string
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(c clock.Clock) func(*Options) {
	return func(o *Options) {
		o.Clock = c
	}
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(f func() string) func(*Options) {
	return func(o *Options) {
		o.IDGenerator = f
	}
}

// Feed is safe for concurrent use.
type Feed struct {
	mu          sync.RWMutex
	alerts      []Alert
	clock       clock.Clock
	idGenerator func() string
}

// NewFeed returns an empty feed.
func NewFeed(optFns ...func(*Options)) *Feed {
	o := &Options{
		Clock:       &clock.RealClock{},
		IDGenerator: uuid.NewString,
	}
	for _, opt := range optFns {
		opt(o)
	}
	return &Feed{
		clock:       o.Clock,
		idGenerator: o.IDGenerator,
	}
}

// Push adds an unread alert at the head of the feed and returns it.
func (f *Feed) Push(kind Kind, title, message string) Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := Alert{
		ID:        f.idGenerator(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: f.clock.Now(),
	}
	f.alerts = append([]Alert{a}, f.alerts...)
	return a
}

// List returns a copy of the feed, newest first.
func (f *Feed) List() []Alert {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Alert, len(f.alerts))
	copy(out, f.alerts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// MarkRead reports whether an alert with id exists.
func (f *Feed) MarkRead(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.alerts {
		if f.alerts[i].ID == id {
			f.alerts[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead marks every alert read.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.alerts {
		f.alerts[i].Read = true
	}
}

// Delete reports whether an alert with id was removed.
func (f *Feed) Delete(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.alerts {
		if f.alerts[i].ID == id {
			f.alerts = append(f.alerts[:i], f.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every alert.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = nil
}

// UnreadCount returns the number of unread alerts.
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var n int
	for _, a := range f.alerts {
		if !a.Read {
			n++
		}
	}
	return n
}
