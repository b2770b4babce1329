package scm

import (
	"time"

	"github.com/vvatanabe/scm/internal/clock"
)

// SeedShipmentID is the ID of the shipment a default memory store starts with.
const SeedShipmentID = "SHP-1001"

// SeedShipments returns the example shipment a fresh store starts with:
// a tomato batch two checkpoints into its trip from the farm.
func SeedShipments(now time.Time) []Shipment {
	return []Shipment{
		{
			ID:            SeedShipmentID,
			BatchID:       "BATCH-2024-001",
			CropType:      "Tomatoes",
			QuantityKg:    500,
			Condition:     ConditionGood,
			Origin:        "Green Valley Farm, Nashik",
			Destination:   "Central Market, Mumbai",
			CurrentStatus: StatusInTransit,
			CurrentLocation: &Location{
				Lat: 19.9975,
				Lng: 73.7898,
			},
			ETA: clock.FormatRFC3339Nano(now.Add(24 * time.Hour)),
			Checkpoints: []Checkpoint{
				{
					ID:          "CP-1",
					Name:        "Farm Pickup",
					Location:    Location{Lat: 20.0059, Lng: 73.7900},
					Timestamp:   clock.FormatRFC3339Nano(now.Add(-6 * time.Hour)),
					HandlerRole: RoleFarmer,
					Notes:       "Harvested and packed in crates",
				},
				{
					ID:          "CP-2",
					Name:        "Nashik Distribution Hub",
					Location:    Location{Lat: 19.9975, Lng: 73.7898},
					Timestamp:   clock.FormatRFC3339Nano(now.Add(-2 * time.Hour)),
					HandlerRole: RoleLogistics,
				},
			},
			BuyerID:            "buyer-001",
			FarmerID:           "farmer-001",
			LogisticsPartnerID: "logistics-001",
		},
	}
}
