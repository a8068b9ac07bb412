package compare

import (
	"github.com/autorovers/autorovers/internal/domain/comparison"
	"github.com/autorovers/autorovers/internal/domain/comparison/row"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// MinVehicles is the smallest batch that renders as a comparison.
const MinVehicles = 2

// Cause says why a vehicle left the comparison.
type Cause string

// Drop causes.
const (
	CauseFetch        Cause = "fetch"
	CauseNormalize    Cause = "normalize"
	CauseTypeMismatch Cause = "type-mismatch"
)

// Drop is a selected vehicle that could not be compared. A transient drop
// failed for reasons unrelated to the vehicle and stays selected.
type Drop struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Cause     Cause  `json:"cause"`
	Reason    string `json:"reason,omitempty"`
	Transient bool   `json:"transient,omitempty"`
}

// Result is the outcome of one comparison run.
type Result struct {
	Line         vehicle.Line         `json:"vehicleType,omitempty"`
	Table        row.Table            `json:"table"`
	Vehicles     []comparison.Vehicle `json:"-"`
	Dropped      []Drop               `json:"dropped"`
	Insufficient bool                 `json:"insufficient"`
}

// RemovedIDs lists the ids of dropped vehicles that leave the selection.
func (r Result) RemovedIDs() []int64 {
	ids := make([]int64, 0, len(r.Dropped))
	for _, d := range r.Dropped {
		if !d.Transient {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
