package comparison

import (
	"math"
	"strings"

	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// DefaultVariant names a record that has no variant.
const DefaultVariant = "Standard"

// Result is either a Vehicle or the reason the record cannot be compared.
type Result struct {
	Vehicle Vehicle
	Reason  string
}

// OK reports whether normalization produced a vehicle.
func (r Result) OK() bool { return r.Reason == "" && r.Vehicle != nil }

func reject(reason string) Result { return Result{Reason: reason} }

// Normalizer applies a fixed Policy to detail records.
type Normalizer struct {
	policy Policy
}

// NewNormalizer creates a normalizer for the given policy.
func NewNormalizer(p Policy) *Normalizer { return &Normalizer{policy: p} }

// Policy returns the configured policy.
func (n *Normalizer) Policy() Policy { return n.policy }

// Normalize converts d into a comparable vehicle of the given line.
func (n *Normalizer) Normalize(d vehicle.Details, line vehicle.Line) Result {
	return Normalize(d, line, n.policy)
}

// Normalize converts d into a comparable vehicle of the given line.
// The line argument wins over the record's own vehicleType. The result
// depends only on its inputs.
func Normalize(d vehicle.Details, line vehicle.Line, p Policy) Result {
	if !line.IsValid() {
		return reject("unresolved vehicle type")
	}
	if d.ID <= 0 {
		return reject("missing id")
	}
	slug := strings.TrimSpace(d.Slug)
	if slug == "" {
		return reject("missing slug")
	}

	c := checker{strict: p.Validation == ValidationStrict}
	f := resolveFields(d)

	base := Base{
		ID:      d.ID,
		Slug:    slug,
		Type:    line,
		Brand:   c.str(d.Brand, "brand"),
		Model:   c.str(d.Model, "model"),
		Variant: strings.TrimSpace(d.Variant),
	}
	if base.Variant == "" {
		base.Variant = DefaultVariant
	}
	base.Year = c.year(d.Year)
	base.Category = c.str(d.Category, "category")
	base.ImageURL = c.str(d.ImageURL, "imageUrl")
	base.Transmission = c.str(d.Transmission, "transmission")
	if !f.present {
		c.fail("details")
	}
	base.Price = c.num(d.Price, "price")
	base.WarrantyYears = c.num(f.warrantyYears, "warrantyYears")
	base.ServiceIntervalKm = c.num(f.serviceIntervalKm, "serviceIntervalKm")
	if c.missing != "" {
		return reject("missing " + c.missing)
	}

	pt, reason := powertrain(f, p.Fuel)
	if reason != "" {
		return reject(reason)
	}
	base.Powertrain = pt

	if pt == PowertrainEV {
		rng := f.evRange
		if !positive(rng) {
			rng = f.engineRange
		}
		base.MileageOrRange = c.num(rng, "range")
		base.Power = c.num(pick(f.evPower, f.enginePower), "power")
		base.Torque = c.num(pick(f.evTorque, f.engineTorq), "torque")
	} else {
		base.MileageOrRange = c.num(f.mileage, "mileage")
		base.Power = c.num(f.enginePower, "power")
		base.Torque = c.num(f.engineTorq, "torque")
	}

	var v Vehicle
	switch line {
	case vehicle.LineBike:
		v = Bike{
			Base:              base,
			KerbWeightKg:      c.num(f.weight, "dimensions.weight"),
			FuelTankCapacityL: c.num(f.tankSize, "bike.tankSize"),
		}
	case vehicle.LineCar:
		v = Car{
			Base:       base,
			BodyType:   base.Category,
			BootSpaceL: c.num(f.bootSpace, "car.bootSpace"),
		}
	}
	if c.missing != "" {
		return reject("missing " + c.missing)
	}
	return Result{Vehicle: v}
}

func powertrain(f fields, policy FuelPolicy) (Powertrain, string) {
	if f.electric {
		return PowertrainEV, ""
	}
	ft := strings.ToLower(strings.TrimSpace(f.fuelType))
	switch {
	case ft == "":
		if policy == FuelReject {
			return "", "missing engine.fuelType"
		}
		return PowertrainPetrol, ""
	case strings.Contains(ft, "petrol"), strings.Contains(ft, "gasoline"):
		return PowertrainPetrol, ""
	case strings.Contains(ft, "diesel"):
		return PowertrainDiesel, ""
	case strings.Contains(ft, "hybrid"):
		return PowertrainHybrid, ""
	case strings.Contains(ft, "electric"), ft == "ev":
		return PowertrainEV, ""
	default:
		if policy == FuelReject {
			return "", "unknown fuelType " + f.fuelType
		}
		return PowertrainPetrol, ""
	}
}

// checker records the first missing field under strict validation.
type checker struct {
	strict  bool
	missing string
}

func (c *checker) fail(name string) {
	if c.strict && c.missing == "" {
		c.missing = name
	}
}

func (c *checker) str(v, name string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		c.fail(name)
	}
	return v
}

func (c *checker) num(v *float64, name string) float64 {
	if positive(v) {
		return *v
	}
	c.fail(name)
	return 0
}

func (c *checker) year(v *int) int {
	if v != nil && *v > 0 {
		return *v
	}
	c.fail("year")
	return 0
}

func positive(v *float64) bool {
	return v != nil && *v > 0 && !math.IsInf(*v, 0) && !math.IsNaN(*v)
}
