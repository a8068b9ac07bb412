package autorovers

import (
	"context"

	"github.com/autorovers/autorovers/internal/domain/comparison/row"
	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
	compareuc "github.com/autorovers/autorovers/internal/usecase/compare"
)

// Line is a product line ("Bike" or "Car"). The zero value means unresolved.
type Line = vehicle.Line

// Product lines.
const (
	LineBike = vehicle.LineBike
	LineCar  = vehicle.LineCar
)

// ParseLine resolves a product line from a free-form tag ("bike", " Car ").
func ParseLine(s string) (Line, bool) { return vehicle.ParseLine(s) }

// Vehicle is a lightweight catalog reference, as stored in a selection.
type Vehicle = vehicle.Reference

// VehicleDetails is the full catalog record fetched for a comparison.
type VehicleDetails = vehicle.Details

// VehicleSpecs is the details payload of a catalog record.
type VehicleSpecs = vehicle.Specs

// Reason explains why a toggle was not applied. ReasonNone means it was.
type Reason = domsel.Reason

// Toggle rejection reasons.
const (
	ReasonNone            = domsel.ReasonNone
	ReasonDuplicateType   = domsel.ReasonDuplicateType
	ReasonCapacity        = domsel.ReasonCapacity
	ReasonUnclassifiable  = domsel.ReasonUnclassifiable
	ReasonMissingIdentity = domsel.ReasonMissingIdentity
)

// Capacity is the maximum number of vehicles in a selection.
const Capacity = domsel.Capacity

// Table is a rendered comparison table.
type Table = row.Table

// Drop records a vehicle left out of a comparison.
type Drop = compareuc.Drop

// Fetcher loads full vehicle records by slug.
type Fetcher interface {
	Get(ctx context.Context, slug string) (VehicleDetails, error)
}

// Selection is a snapshot of an owner's compare selection.
type Selection struct {
	VehicleType Line      `json:"vehicleType"` // locked line; empty when the selection is empty
	Items       []Vehicle `json:"items"`
}

// Comparison is the outcome of comparing an owner's selection.
type Comparison struct {
	VehicleType  Line   `json:"vehicleType"`
	Table        Table  `json:"table"`
	Dropped      []Drop `json:"dropped"`
	Insufficient bool   `json:"insufficient"` // fewer than two vehicles survived
}

func selectionFromState(st domsel.State) Selection {
	return Selection{VehicleType: st.Locked(), Items: st.Items()}
}

func comparisonFromResult(r compareuc.Result) Comparison {
	return Comparison{
		VehicleType:  r.Line,
		Table:        r.Table,
		Dropped:      r.Dropped,
		Insufficient: r.Insufficient,
	}
}
