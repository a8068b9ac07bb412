package selection

import (
	"encoding/json"
	"fmt"

	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// stateDoc is the persisted JSON shape: {"vehicleType":"Car","items":[...]}.
// vehicleType is informational; the lock is recomputed from items on read.
type stateDoc struct {
	VehicleType string          `json:"vehicleType,omitempty"`
	Items       json.RawMessage `json:"items"`
}

func encodeState(s domsel.State) ([]byte, error) {
	items := s.Items()
	if items == nil {
		items = []vehicle.Reference{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	data, err := json.Marshal(stateDoc{VehicleType: s.Locked().String(), Items: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal selection: %w", err)
	}
	return data, nil
}

func decodeState(data []byte, c domsel.Classifier) (domsel.State, error) {
	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domsel.Empty(), fmt.Errorf("%w: %w", domsel.ErrMalformed, err)
	}
	if len(doc.Items) == 0 || doc.Items[0] != '[' {
		return domsel.Empty(), fmt.Errorf("%w: items is not an array", domsel.ErrMalformed)
	}
	var items []vehicle.Reference
	if err := json.Unmarshal(doc.Items, &items); err != nil {
		return domsel.Empty(), fmt.Errorf("%w: %w", domsel.ErrMalformed, err)
	}
	return domsel.New(items, c)
}
