// Package row is the comparison row catalog: which rows a comparison table
// shows for a product line, in what order, and how each cell is formatted.
package row

import (
	"github.com/autorovers/autorovers/internal/domain/comparison"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Key identifies a comparison row.
type Key string

// Row keys.
const (
	KeyPrice             Key = "price"
	KeyMileageOrRange    Key = "mileageOrRange"
	KeyPower             Key = "power"
	KeyTorque            Key = "torque"
	KeyTransmission      Key = "transmission"
	KeyPowertrain        Key = "powertrain"
	KeyWarrantyYears     Key = "warrantyYears"
	KeyServiceIntervalKm Key = "serviceIntervalKm"
	KeyKerbWeightKg      Key = "kerbWeightKg"
	KeyFuelTankCapacityL Key = "fuelTankCapacityL"
	KeyBodyType          Key = "bodyType"
	KeyBootSpaceL        Key = "bootSpaceL"
)

// Row is one labelled line of the comparison table.
type Row struct {
	Key   Key
	Label string
	get   func(comparison.Vehicle) string
}

// Format renders the row's cell for v.
func (r Row) Format(v comparison.Vehicle) string {
	if v == nil {
		return Dash
	}
	return r.get(v)
}

var shared = []Row{
	{KeyPrice, "Price (ex-showroom)", func(v comparison.Vehicle) string {
		return Money(v.Common().Price)
	}},
	{KeyMileageOrRange, "Mileage / Range", func(v comparison.Vehicle) string {
		b := v.Common()
		if b.Powertrain == comparison.PowertrainEV {
			return Int(b.MileageOrRange, "km")
		}
		return OneDecimal(b.MileageOrRange, "km/l")
	}},
	{KeyPower, "Power", func(v comparison.Vehicle) string {
		return OneDecimal(v.Common().Power, "PS")
	}},
	{KeyTorque, "Torque", func(v comparison.Vehicle) string {
		return OneDecimal(v.Common().Torque, "Nm")
	}},
	{KeyTransmission, "Transmission", func(v comparison.Vehicle) string {
		return Text(v.Common().Transmission)
	}},
	{KeyPowertrain, "Fuel / Powertrain", func(v comparison.Vehicle) string {
		return Text(string(v.Common().Powertrain))
	}},
	{KeyWarrantyYears, "Warranty", func(v comparison.Vehicle) string {
		return Int(v.Common().WarrantyYears, "yrs")
	}},
	{KeyServiceIntervalKm, "Service Interval", func(v comparison.Vehicle) string {
		return Int(v.Common().ServiceIntervalKm, "km")
	}},
}

var bike = []Row{
	{KeyKerbWeightKg, "Kerb Weight", func(v comparison.Vehicle) string {
		if b, ok := v.(comparison.Bike); ok {
			return Int(b.KerbWeightKg, "kg")
		}
		return Dash
	}},
	{KeyFuelTankCapacityL, "Fuel Tank Capacity", func(v comparison.Vehicle) string {
		if b, ok := v.(comparison.Bike); ok {
			return OneDecimal(b.FuelTankCapacityL, "L")
		}
		return Dash
	}},
}

var car = []Row{
	{KeyBodyType, "Body Type", func(v comparison.Vehicle) string {
		if c, ok := v.(comparison.Car); ok {
			return Text(c.BodyType)
		}
		return Dash
	}},
	{KeyBootSpaceL, "Boot Space", func(v comparison.Vehicle) string {
		if c, ok := v.(comparison.Car); ok {
			return Int(c.BootSpaceL, "L")
		}
		return Dash
	}},
}

var catalog = map[vehicle.Line][]Row{
	vehicle.LineBike: join(shared, bike),
	vehicle.LineCar:  join(shared, car),
}

func join(a, b []Row) []Row {
	out := make([]Row, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Shared returns the eight rows every product line shows.
func Shared() []Row { return append([]Row(nil), shared...) }

// For returns the rows for a product line: shared rows first, then the two
// line-specific rows. Unresolved lines get the shared rows only.
func For(line vehicle.Line) []Row {
	rows, ok := catalog[line]
	if !ok {
		return Shared()
	}
	return append([]Row(nil), rows...)
}
