package scm_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vvatanabe/scm"
	"github.com/vvatanabe/scm/internal/test"
)

func TestShipmentClone(t *testing.T) {
	original := test.NewShipment("S-1", "B-1", scm.StatusInTransit)
	c := original.Clone()
	if diff := cmp.Diff(&original, c); diff != "" {
		t.Fatalf("Clone() mismatch (-want +got):\n%s", diff)
	}
	c.CurrentLocation.Lat = 0
	c.Checkpoints[0].Name = "changed"
	if original.CurrentLocation.Lat == 0 || original.Checkpoints[0].Name == "changed" {
		t.Error("Clone() shares memory with the original")
	}

	var nilShipment *scm.Shipment
	if nilShipment.Clone() != nil {
		t.Error("Clone() of nil = non-nil")
	}
	empty := (&scm.Shipment{}).Clone()
	if empty.Checkpoints == nil || empty.CurrentLocation != nil {
		t.Errorf("Clone() of empty shipment = %+v", empty)
	}
}

func TestShipmentLastCheckpoint(t *testing.T) {
	s := test.NewShipment("S-1", "B-1", scm.StatusCreated)
	if got := s.LastCheckpoint(); got == nil || got.ID != "S-1-CP-1" {
		t.Errorf("LastCheckpoint() = %+v, want S-1-CP-1", got)
	}
	if got := (&scm.Shipment{}).LastCheckpoint(); got != nil {
		t.Errorf("LastCheckpoint() = %+v, want nil", got)
	}
}

func TestParseEnums(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) (string, error)
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "condition",
			parse: func(s string) (string, error) { v, err := scm.ParseCondition(s); return string(v), err },
			input: "fair",
			want:  "fair",
		},
		{
			name:    "bad condition",
			parse:   func(s string) (string, error) { v, err := scm.ParseCondition(s); return string(v), err },
			input:   "rotten",
			wantErr: true,
		},
		{
			name:  "status",
			parse: func(s string) (string, error) { v, err := scm.ParseShipmentStatus(s); return string(v), err },
			input: "in_transit",
			want:  "in_transit",
		},
		{
			name:    "bad status",
			parse:   func(s string) (string, error) { v, err := scm.ParseShipmentStatus(s); return string(v), err },
			input:   "lost",
			wantErr: true,
		},
		{
			name:  "role",
			parse: func(s string) (string, error) { v, err := scm.ParseHandlerRole(s); return string(v), err },
			input: "market-agent",
			want:  "market-agent",
		},
		{
			name:    "bad role",
			parse:   func(s string) (string, error) { v, err := scm.ParseHandlerRole(s); return string(v), err },
			input:   "pilot",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				var invalid scm.InvalidValueError
				if !errors.As(err, &invalid) || invalid.Value != tt.input {
					t.Errorf("parse(%q) error = %#v, want InvalidValueError", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestShipmentStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to scm.ShipmentStatus
		want     bool
	}{
		{scm.StatusCreated, scm.StatusInTransit, true},
		{scm.StatusCreated, scm.StatusDelivered, false},
		{scm.StatusInTransit, scm.StatusDelayed, true},
		{scm.StatusInTransit, scm.StatusDelivered, true},
		{scm.StatusDelayed, scm.StatusInTransit, true},
		{scm.StatusDelayed, scm.StatusDelivered, true},
		{scm.StatusDelayed, scm.StatusCreated, false},
		{scm.StatusInTransit, scm.StatusCancelled, true},
		{scm.StatusDelivered, scm.StatusCancelled, false},
		{scm.StatusCancelled, scm.StatusCreated, false},
		{scm.StatusCreated, "unknown", false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%q.CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestShipmentStatusIsTerminal(t *testing.T) {
	for _, st := range []scm.ShipmentStatus{scm.StatusDelivered, scm.StatusCancelled} {
		if !st.IsTerminal() {
			t.Errorf("%q.IsTerminal() = false", st)
		}
	}
	for _, st := range []scm.ShipmentStatus{scm.StatusCreated, scm.StatusInTransit, scm.StatusDelayed} {
		if st.IsTerminal() {
			t.Errorf("%q.IsTerminal() = true", st)
		}
	}
}

func TestLocationString(t *testing.T) {
	if got := (scm.Location{Lat: 19.07598, Lng: 72.8777}).String(); got != "19.0760,72.8777" {
		t.Errorf("String() = %q", got)
	}
}
