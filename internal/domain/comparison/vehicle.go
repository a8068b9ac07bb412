// Package comparison turns catalog detail records into render-ready
// comparison values. A Vehicle is either a Bike or a Car.
package comparison

import "github.com/autorovers/autorovers/internal/domain/vehicle"

// Powertrain is the normalized drivetrain of a vehicle.
type Powertrain string

// Powertrains.
const (
	PowertrainPetrol Powertrain = "Petrol"
	PowertrainDiesel Powertrain = "Diesel"
	PowertrainEV     Powertrain = "EV"
	PowertrainHybrid Powertrain = "Hybrid"
)

// Base holds the header and the eight fields every comparison shows.
type Base struct {
	ID       int64        `json:"id"`
	Slug     string       `json:"slug"`
	Type     vehicle.Line `json:"vehicleType"`
	Brand    string       `json:"brand"`
	Model    string       `json:"model"`
	Variant  string       `json:"variant"`
	Year     int          `json:"year"`
	Category string       `json:"category"`
	ImageURL string       `json:"imageUrl"`

	Price             float64    `json:"price"`
	MileageOrRange    float64    `json:"mileageOrRange"`
	Power             float64    `json:"power"`
	Torque            float64    `json:"torque"`
	Transmission      string     `json:"transmission"`
	Powertrain        Powertrain `json:"powertrain"`
	WarrantyYears     float64    `json:"warrantyYears"`
	ServiceIntervalKm float64    `json:"serviceIntervalKm"`
}

// Common returns the shared fields.
func (b Base) Common() Base { return b }

// Line returns the product line.
func (b Base) Line() vehicle.Line { return b.Type }

// Title is "Brand Model Variant".
func (b Base) Title() string {
	return vehicle.Reference{Brand: b.Brand, Model: b.Model, Variant: b.Variant}.Title()
}

// Vehicle is a comparable vehicle. Only Bike and Car implement it.
type Vehicle interface {
	Common() Base
	Line() vehicle.Line
	isComparison()
}

// Bike is a two-wheeler comparison record.
type Bike struct {
	Base
	KerbWeightKg      float64 `json:"kerbWeightKg"`
	FuelTankCapacityL float64 `json:"fuelTankCapacityL"`
}

func (Bike) isComparison() {}

// Car is a four-wheeler comparison record.
type Car struct {
	Base
	BodyType   string  `json:"bodyType"`
	BootSpaceL float64 `json:"bootSpaceL"`
}

func (Car) isComparison() {}
