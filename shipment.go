package scm

import "fmt"

// Condition is the physical condition of the goods in a shipment.
type Condition string

const (
	ConditionGood Condition = "good"
	ConditionFair Condition = "fair"
	ConditionPoor Condition = "poor"
)

// IsValid reports whether c is one of the known conditions.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// ParseCondition converts user input into a Condition.
func ParseCondition(s string) (Condition, error) {
	c := Condition(s)
	if !c.IsValid() {
		return "", InvalidValueError{Field: "condition", Value: s}
	}
	return c, nil
}

// ShipmentStatus is the tracking status of a shipment.
// Any status may follow any other; see CanTransitionTo for the advisory state machine.
type ShipmentStatus string

const (
	StatusCreated   ShipmentStatus = "created"
	StatusInTransit ShipmentStatus = "in_transit"
	StatusDelayed   ShipmentStatus = "delayed"
	StatusDelivered ShipmentStatus = "delivered"
	StatusCancelled ShipmentStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses.
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case StatusCreated, StatusInTransit, StatusDelayed, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is expected from s.
func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal successor of s in the
// hardened lifecycle created -> in_transit -> {delayed, delivered}.
// UpdateShipment does not enforce it.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s.IsTerminal() || !next.IsValid() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusCreated:
		return next == StatusInTransit
	case StatusInTransit:
		return next == StatusDelayed || next == StatusDelivered
	case StatusDelayed:
		return next == StatusInTransit || next == StatusDelivered
	}
	return false
}

// ParseShipmentStatus converts user input into a ShipmentStatus.
func ParseShipmentStatus(s string) (ShipmentStatus, error) {
	st := ShipmentStatus(s)
	if !st.IsValid() {
		return "", InvalidValueError{Field: "status", Value: s}
	}
	return st, nil
}

// HandlerRole is the actor category responsible for a checkpoint event.
type HandlerRole string

const (
	RoleFarmer      HandlerRole = "farmer"
	RoleLogistics   HandlerRole = "logistics"
	RoleMarketAgent HandlerRole = "market-agent"
	RoleBuyer       HandlerRole = "buyer"
	RoleAdmin       HandlerRole = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r HandlerRole) IsValid() bool {
	switch r {
	case RoleFarmer, RoleLogistics, RoleMarketAgent, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// ParseHandlerRole converts user input into a HandlerRole.
func ParseHandlerRole(s string) (HandlerRole, error) {
	r := HandlerRole(s)
	if !r.IsValid() {
		return "", InvalidValueError{Field: "handler role", Value: s}
	}
	return r, nil
}

// Location is a point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat" dynamodbav:"lat"`
	Lng float64 `json:"lng" dynamodbav:"lng"`
}

// String formats l as "lat,lng".
func (l Location) String() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lng)
}

// Checkpoint records a shipment's presence at a place and time.
// It is never changed once appended to a shipment.
type Checkpoint struct {
	ID          string      `json:"id" dynamodbav:"id"`
	Name        string      `json:"name" dynamodbav:"name"`
	Location    Location    `json:"location" dynamodbav:"location"`
	Timestamp   string      `json:"timestamp" dynamodbav:"timestamp"`
	HandlerRole HandlerRole `json:"handler_role" dynamodbav:"handler_role"`
	Notes       string      `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
}

// Shipment is a tracked batch of agricultural goods.
type Shipment struct {
	ID                 string         `json:"id" dynamodbav:"id"`
	BatchID            string         `json:"batch_id" dynamodbav:"batch_id"`
	CropType           string         `json:"crop_type" dynamodbav:"crop_type"`
	QuantityKg         float64        `json:"quantity_kg" dynamodbav:"quantity_kg"`
	Condition          Condition      `json:"condition" dynamodbav:"condition"`
	Origin             string         `json:"origin" dynamodbav:"origin"`
	Destination        string         `json:"destination" dynamodbav:"destination"`
	CurrentStatus      ShipmentStatus `json:"current_status" dynamodbav:"current_status"`
	CurrentLocation    *Location      `json:"current_location,omitempty" dynamodbav:"current_location,omitempty"`
	ETA                string         `json:"eta,omitempty" dynamodbav:"eta,omitempty"`
	Checkpoints        []Checkpoint   `json:"checkpoints" dynamodbav:"checkpoints"`
	BuyerID            string         `json:"buyer_id,omitempty" dynamodbav:"buyer_id,omitempty"`
	FarmerID           string         `json:"farmer_id,omitempty" dynamodbav:"farmer_id,omitempty"`
	LogisticsPartnerID string         `json:"logistics_partner_id,omitempty" dynamodbav:"logistics_partner_id,omitempty"`
}

// Clone returns a deep copy of s. Callers never share memory with a store.
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	c := *s
	if s.CurrentLocation != nil {
		loc := *s.CurrentLocation
		c.CurrentLocation = &loc
	}
	c.Checkpoints = make([]Checkpoint, len(s.Checkpoints))
	copy(c.Checkpoints, s.Checkpoints)
	return &c
}

// LastCheckpoint returns the most recently appended checkpoint, or nil.
func (s *Shipment) LastCheckpoint() *Checkpoint {
	if len(s.Checkpoints) == 0 {
		return nil
	}
	cp := s.Checkpoints[len(s.Checkpoints)-1]
	return &cp
}

// CheckpointInput describes a checkpoint to append. An empty Timestamp means "now".
type CheckpointInput struct {
	Name        string
	Location    Location
	Timestamp   string
	HandlerRole HandlerRole
	Notes       string
}

func newCheckpoint(id string, in *CheckpointInput, now string) Checkpoint {
	ts := in.Timestamp
	if ts == "" {
		ts = now
	}
	return Checkpoint{
		ID:          id,
		Name:        in.Name,
		Location:    in.Location,
		Timestamp:   ts,
		HandlerRole: in.HandlerRole,
		Notes:       in.Notes,
	}
}
