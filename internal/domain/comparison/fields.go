package comparison

import (
	"strings"

	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// fields is the details payload with every value resolved once:
// nested group value, else flat legacy value, else absent (nil / "").
type fields struct {
	present bool

	fuelType string
	electric bool

	warrantyYears     *float64
	serviceIntervalKm *float64

	mileage     *float64
	engineRange *float64
	enginePower *float64
	engineTorq  *float64

	evRange  *float64
	evPower  *float64
	evTorque *float64

	weight    *float64
	tankSize  *float64
	bootSpace *float64
}

func resolveFields(d vehicle.Details) fields {
	s := d.Specs
	if s == nil {
		return fields{}
	}
	f := fields{
		present:           true,
		fuelType:          strings.TrimSpace(s.FuelType),
		warrantyYears:     s.WarrantyYears,
		serviceIntervalKm: s.ServiceIntervalKm,
		mileage:           s.Mileage,
		engineRange:       s.Range,
		enginePower:       s.Power,
		engineTorq:        s.Torque,
		weight:            s.Weight,
		tankSize:          s.TankSize,
		bootSpace:         s.BootSpace,
	}
	if e := s.Engine; e != nil {
		if ft := strings.TrimSpace(e.FuelType); ft != "" {
			f.fuelType = ft
		}
		f.mileage = pick(e.Mileage, f.mileage)
		f.engineRange = pick(e.Range, f.engineRange)
		f.enginePower = pick(e.Power, f.enginePower)
		f.engineTorq = pick(e.Torque, f.engineTorq)
	}
	if ev := s.EV; ev != nil {
		f.electric = true
		f.evRange = ev.Range
		f.evPower = ev.MotorPower
		f.evTorque = ev.MotorTorque
	}
	if dm := s.Dimensions; dm != nil {
		f.weight = pick(dm.Weight, f.weight)
	}
	if b := s.Bike; b != nil {
		f.tankSize = pick(b.TankSize, f.tankSize)
	}
	if c := s.Car; c != nil {
		f.bootSpace = pick(c.BootSpace, f.bootSpace)
	}
	return f
}

func pick(nested, flat *float64) *float64 {
	if nested != nil {
		return nested
	}
	return flat
}
