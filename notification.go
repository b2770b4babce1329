package scm

import (
	"fmt"
	"sort"

	"github.com/vvatanabe/scm/internal/clock"
)

// NotificationType classifies an event surfaced to users.
type NotificationType string

const (
	NotificationDelay     NotificationType = "delay"
	NotificationException NotificationType = "exception"
	NotificationDelivered NotificationType = "delivered"
	NotificationUpdate    NotificationType = "update"
)

// IsValid reports whether t is one of the known notification types.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationDelay, NotificationException, NotificationDelivered, NotificationUpdate:
		return true
	}
	return false
}

// Notification is an event record raised as a side effect of shipment mutations.
// Its only mutation is being marked read.
type Notification struct {
	ID                string           `json:"id" dynamodbav:"id"`
	Type              NotificationType `json:"type" dynamodbav:"type"`
	Title             string           `json:"title" dynamodbav:"title"`
	Message           string           `json:"message" dynamodbav:"message"`
	CreatedAt         string           `json:"created_at" dynamodbav:"created_at"`
	RelatedShipmentID string           `json:"related_shipment_id,omitempty" dynamodbav:"related_shipment_id,omitempty"`
	Read              bool             `json:"read" dynamodbav:"read"`
}

// Clone returns a copy of n. A nil n yields nil.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

func newCreatedNotification(id string, s *Shipment, now string) *Notification {
	return &Notification{
		ID:                id,
		Type:              NotificationUpdate,
		Title:             "Shipment Created",
		Message:           fmt.Sprintf("Shipment %s has been created.", s.BatchID),
		CreatedAt:         now,
		RelatedShipmentID: s.ID,
	}
}

// newUpdatedNotification picks the type from the status after the update.
func newUpdatedNotification(id string, s *Shipment, now string) *Notification {
	n := &Notification{
		ID:                id,
		Type:              NotificationUpdate,
		Title:             "Shipment Updated",
		Message:           fmt.Sprintf("Shipment %s has been updated.", s.BatchID),
		CreatedAt:         now,
		RelatedShipmentID: s.ID,
	}
	if s.CurrentStatus == StatusDelayed {
		n.Type = NotificationDelay
		n.Title = "Shipment Delayed"
		n.Message = fmt.Sprintf("Shipment %s is delayed.", s.BatchID)
	}
	return n
}

// sortNewestFirst orders by CreatedAt descending. Ties keep their current order.
func sortNewestFirst(ns []*Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		return clock.RFC3339NanoToTime(ns[i].CreatedAt).After(clock.RFC3339NanoToTime(ns[j].CreatedAt))
	})
}
