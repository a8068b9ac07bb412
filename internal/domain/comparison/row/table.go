package row

import (
	"github.com/autorovers/autorovers/internal/domain/comparison"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Column is a vehicle header in a rendered table.
type Column struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Year     int    `json:"year,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// RenderedRow is one formatted table row.
type RenderedRow struct {
	Key   Key      `json:"key"`
	Label string   `json:"label"`
	Cells []string `json:"cells"`
}

// Table is the catalog projected over a set of vehicles.
type Table struct {
	VehicleType vehicle.Line  `json:"vehicleType"`
	Columns     []Column      `json:"columns"`
	Rows        []RenderedRow `json:"rows"`
}

// Render formats every row of the line's catalog for each vehicle, in order.
func Render(line vehicle.Line, vehicles []comparison.Vehicle) Table {
	t := Table{
		VehicleType: line,
		Columns:     make([]Column, 0, len(vehicles)),
	}
	for _, v := range vehicles {
		b := v.Common()
		t.Columns = append(t.Columns, Column{
			ID:       b.ID,
			Slug:     b.Slug,
			Title:    b.Title(),
			Year:     b.Year,
			ImageURL: b.ImageURL,
		})
	}
	for _, r := range For(line) {
		cells := make([]string, len(vehicles))
		for i, v := range vehicles {
			cells[i] = r.Format(v)
		}
		t.Rows = append(t.Rows, RenderedRow{Key: r.Key, Label: r.Label, Cells: cells})
	}
	return t
}
