package vehicle

// Details is the catalog's "vehicle with details" record (GET /api/Vehicles/slug/{slug}).
// Header fields are optional on the wire; numeric pointers distinguish absent from zero.
type Details struct {
	ID           int64    `json:"id"`
	VehicleType  string   `json:"vehicleType,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Model        string   `json:"model,omitempty"`
	Variant      string   `json:"variant,omitempty"`
	Year         *int     `json:"year,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Category     string   `json:"category,omitempty"`
	Transmission string   `json:"transmission,omitempty"`
	Slug         string   `json:"slug,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Specs        *Specs   `json:"details,omitempty"`
}

// Specs carries both vintages of the details payload: the flat legacy fields
// and the nested groups introduced later. Either may be partially present.
type Specs struct {
	Description       string   `json:"description,omitempty"`
	WarrantyYears     *float64 `json:"warrantyYears,omitempty"`
	ServiceIntervalKm *float64 `json:"serviceIntervalKm,omitempty"`

	// Flat legacy fields.
	EngineType string   `json:"engineType,omitempty"`
	FuelType   string   `json:"fuelType,omitempty"`
	Power      *float64 `json:"power,omitempty"`
	Torque     *float64 `json:"torque,omitempty"`
	Mileage    *float64 `json:"mileage,omitempty"`
	Range      *float64 `json:"range,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
	BootSpace  *float64 `json:"bootSpace,omitempty"`
	TankSize   *float64 `json:"tankSize,omitempty"`

	// Nested groups.
	Engine     *Engine     `json:"engine,omitempty"`
	EV         *EV         `json:"ev,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Dynamics   *Dynamics   `json:"dynamics,omitempty"`
	Bike       *BikeSpecs  `json:"bike,omitempty"`
	Car        *CarSpecs   `json:"car,omitempty"`
}

// Engine is the combustion drivetrain group.
type Engine struct {
	FuelType string   `json:"fuelType,omitempty"`
	Power    *float64 `json:"power,omitempty"`
	Torque   *float64 `json:"torque,omitempty"`
	Mileage  *float64 `json:"mileage,omitempty"`
	Range    *float64 `json:"range,omitempty"`
}

// EV is the electric drivetrain group. Its presence alone marks the vehicle electric.
type EV struct {
	Range           *float64 `json:"range,omitempty"`
	MotorPower      *float64 `json:"motorPower,omitempty"`
	MotorTorque     *float64 `json:"motorTorque,omitempty"`
	BatteryCapacity *float64 `json:"batteryCapacity,omitempty"`
}

// Dimensions is the size and mass group.
type Dimensions struct {
	Length          *float64 `json:"length,omitempty"`
	Width           *float64 `json:"width,omitempty"`
	Height          *float64 `json:"height,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
	GroundClearance *float64 `json:"groundClearance,omitempty"`
	WheelBase       *float64 `json:"wheelBase,omitempty"`
}

// Dynamics is the performance group.
type Dynamics struct {
	TopSpeed     *float64 `json:"topSpeed,omitempty"`
	Acceleration *float64 `json:"acceleration,omitempty"`
}

// BikeSpecs is the two-wheeler-only group.
type BikeSpecs struct {
	TankSize *float64 `json:"tankSize,omitempty"`
}

// CarSpecs is the four-wheeler-only group.
type CarSpecs struct {
	BootSpace *float64 `json:"bootSpace,omitempty"`
}

// Hints returns classification hints for the detail record.
func (d Details) Hints() Hints {
	return Hints{VehicleType: d.VehicleType, Category: d.Category}
}

// Reference derives the selection reference for the record.
func (d Details) Reference() Reference {
	ref := Reference{
		ID:           d.ID,
		Slug:         d.Slug,
		VehicleType:  d.VehicleType,
		Category:     d.Category,
		Brand:        d.Brand,
		Model:        d.Model,
		Variant:      d.Variant,
		Transmission: d.Transmission,
		ImageURL:     d.ImageURL,
	}
	if d.Year != nil {
		ref.Year = *d.Year
	}
	if d.Price != nil {
		ref.Price = *d.Price
	}
	return ref
}
