package test

import (
	"errors"
	"strconv"
	"time"

	"github.com/vvatanabe/scm"
)

var ErrTest = errors.New("test")

var DefaultTestDate = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func NewCreateShipmentInput(batchID string, status scm.ShipmentStatus) *scm.CreateShipmentInput {
	return &scm.CreateShipmentInput{
		BatchID:       batchID,
		CropType:      "Wheat",
		QuantityKg:    1200,
		Condition:     scm.ConditionGood,
		Origin:        "Sunrise Farm, Ludhiana",
		Destination:   "Grain Market, Delhi",
		CurrentStatus: status,
		FarmerID:      "farmer-002",
	}
}

func NewShipment(id, batchID string, status scm.ShipmentStatus) scm.Shipment {
	return scm.Shipment{
		ID:            id,
		BatchID:       batchID,
		CropType:      "Rice",
		QuantityKg:    800,
		Condition:     scm.ConditionFair,
		Origin:        "River Farm, Thanjavur",
		Destination:   "Wholesale Market, Chennai",
		CurrentStatus: status,
		CurrentLocation: &scm.Location{
			Lat: 10.787,
			Lng: 79.1378,
		},
		Checkpoints: []scm.Checkpoint{
			{
				ID:          id + "-CP-1",
				Name:        "Farm Gate",
				Location:    scm.Location{Lat: 10.787, Lng: 79.1378},
				Timestamp:   "2024-02-28T06:00:00Z",
				HandlerRole: scm.RoleFarmer,
			},
		},
	}
}

// ShipmentsWithStatuses builds one shipment per status, with IDs S-1, S-2, ...
func ShipmentsWithStatuses(statuses ...scm.ShipmentStatus) []scm.Shipment {
	shipments := make([]scm.Shipment, 0, len(statuses))
	for i, st := range statuses {
		id := "S-" + strconv.Itoa(i+1)
		shipments = append(shipments, NewShipment(id, "B-"+strconv.Itoa(i+1), st))
	}
	return shipments
}
