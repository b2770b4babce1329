package scm

import (
	"context"
)

// Client is the interface for querying and mutating shipments and their notifications.
// Every value it returns is a deep copy; mutating it never affects the store.
// An unknown ID is reported through a nil field on the output, never through an error.
type Client interface {
	// ListShipments returns every shipment, without filtering or pagination.
	ListShipments(ctx context.Context, params *ListShipmentsInput) (*ListShipmentsOutput, error)
	// GetShipment returns a single shipment, or a nil Shipment when the ID is unknown.
	GetShipment(ctx context.Context, params *GetShipmentInput) (*GetShipmentOutput, error)
	// CreateShipment assigns an ID, stores the shipment and raises an update notification.
	CreateShipment(ctx context.Context, params *CreateShipmentInput) (*CreateShipmentOutput, error)
	// UpdateShipment merges the present fields, optionally appends a checkpoint, and raises
	// a delay or update notification.
	UpdateShipment(ctx context.Context, params *UpdateShipmentInput) (*UpdateShipmentOutput, error)
	// ListNotifications returns every notification, newest first.
	ListNotifications(ctx context.Context, params *ListNotificationsInput) (*ListNotificationsOutput, error)
	// MarkNotificationRead flips Read to true. It is idempotent and ignores unknown IDs.
	MarkNotificationRead(ctx context.Context, params *MarkNotificationReadInput) (*MarkNotificationReadOutput, error)
	// GetPerformanceMetrics recomputes the dashboard metrics from the current shipments.
	GetPerformanceMetrics(ctx context.Context, params *GetPerformanceMetricsInput) (*GetPerformanceMetricsOutput, error)
}

// ListShipmentsInput has no fields; listing is unfiltered.
type ListShipmentsInput struct{}

// ListShipmentsOutput holds every stored shipment.
type ListShipmentsOutput struct {
	Shipments []*Shipment `json:"shipments"`
}

// GetShipmentInput selects a shipment by ID.
type GetShipmentInput struct {
	ID string
}

// GetShipmentOutput is the result of GetShipment.
type GetShipmentOutput struct {
	// Shipment is nil when no shipment has the requested ID.
	Shipment *Shipment `json:"shipment"`
}

// CreateShipmentInput carries every Shipment field except the ID.
// Values are stored as given; nothing is validated.
type CreateShipmentInput struct {
	BatchID            string
	CropType           string
	QuantityKg         float64
	Condition          Condition
	Origin             string
	Destination        string
	CurrentStatus      ShipmentStatus
	CurrentLocation    *Location
	ETA                string
	Checkpoints        []Checkpoint
	BuyerID            string
	FarmerID           string
	LogisticsPartnerID string
}

func (in *CreateShipmentInput) newShipment(id string) *Shipment {
	s := &Shipment{
		ID:                 id,
		BatchID:            in.BatchID,
		CropType:           in.CropType,
		QuantityKg:         in.QuantityKg,
		Condition:          in.Condition,
		Origin:             in.Origin,
		Destination:        in.Destination,
		CurrentStatus:      in.CurrentStatus,
		CurrentLocation:    in.CurrentLocation,
		ETA:                in.ETA,
		Checkpoints:        in.Checkpoints,
		BuyerID:            in.BuyerID,
		FarmerID:           in.FarmerID,
		LogisticsPartnerID: in.LogisticsPartnerID,
	}
	// Detach from the caller's pointers.
	return s.Clone()
}

// CreateShipmentOutput holds the stored shipment and the notification it raised.
type CreateShipmentOutput struct {
	Shipment     *Shipment     `json:"shipment"`
	Notification *Notification `json:"notification"`
}

// UpdateShipmentInput is a partial update. A nil field leaves the stored value untouched;
// it never clears it.
type UpdateShipmentInput struct {
	ID              string
	QuantityKg      *float64
	Condition       *Condition
	CurrentStatus   *ShipmentStatus
	CurrentLocation *Location
	ETA             *string
	AddCheckpoint   *CheckpointInput
}

func (in *UpdateShipmentInput) hasFieldUpdates() bool {
	return in.QuantityKg != nil ||
		in.Condition != nil ||
		in.CurrentStatus != nil ||
		in.CurrentLocation != nil ||
		in.ETA != nil
}

func (in *UpdateShipmentInput) apply(s *Shipment) {
	if in.QuantityKg != nil {
		s.QuantityKg = *in.QuantityKg
	}
	if in.Condition != nil {
		s.Condition = *in.Condition
	}
	if in.CurrentStatus != nil {
		s.CurrentStatus = *in.CurrentStatus
	}
	if in.CurrentLocation != nil {
		loc := *in.CurrentLocation
		s.CurrentLocation = &loc
	}
	if in.ETA != nil {
		s.ETA = *in.ETA
	}
}

// UpdateShipmentOutput holds the merged shipment and the notification it raised.
type UpdateShipmentOutput struct {
	// Shipment and Notification are nil when no shipment has the requested ID.
	Shipment     *Shipment     `json:"shipment"`
	Notification *Notification `json:"notification"`
}

// ListNotificationsInput has no fields; listing is unfiltered.
type ListNotificationsInput struct{}

// ListNotificationsOutput holds every notification, newest first.
type ListNotificationsOutput struct {
	Notifications []*Notification `json:"notifications"`
}

// MarkNotificationReadInput selects a notification by ID.
type MarkNotificationReadInput struct {
	ID string
}

// MarkNotificationReadOutput is the result of MarkNotificationRead.
type MarkNotificationReadOutput struct {
	// Notification is nil when no notification has the requested ID.
	Notification *Notification `json:"notification"`
}

// GetPerformanceMetricsInput has no fields.
type GetPerformanceMetricsInput struct{}

// GetPerformanceMetricsOutput carries the summary and its dashboard rendering.
type GetPerformanceMetricsOutput struct {
	Summary PerformanceSummary  `json:"summary"`
	Metrics []PerformanceMetric `json:"metrics"`
}

func newPerformanceMetricsOutput(shipments []*Shipment) *GetPerformanceMetricsOutput {
	sum := ComputePerformanceMetrics(shipments)
	return &GetPerformanceMetricsOutput{
		Summary: sum,
		Metrics: sum.Metrics(),
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
