package comparison

import "fmt"

// Validation decides what happens when a required field is missing.
type Validation int

// Validation policies.
const (
	// ValidationStrict rejects the record naming the first missing field.
	ValidationStrict Validation = iota
	// ValidationLenient coerces missing numbers to 0 and strings to "".
	ValidationLenient
)

// FuelPolicy decides what happens when the fuel type is missing or unrecognized.
type FuelPolicy int

// Fuel policies.
const (
	// FuelDefaultPetrol treats a missing or unknown fuel type as petrol.
	FuelDefaultPetrol FuelPolicy = iota
	// FuelReject rejects the record.
	FuelReject
)

// Policy configures the normalizer.
type Policy struct {
	Validation Validation
	Fuel       FuelPolicy
}

// DefaultPolicy is strict validation with a petrol default for fuel.
func DefaultPolicy() Policy {
	return Policy{Validation: ValidationStrict, Fuel: FuelDefaultPetrol}
}

// ParsePolicy builds a policy from config strings ("strict"|"lenient", "default-petrol"|"reject").
// Empty strings select the defaults.
func ParsePolicy(validation, fuel string) (Policy, error) {
	p := DefaultPolicy()
	switch validation {
	case "", "strict":
	case "lenient":
		p.Validation = ValidationLenient
	default:
		return Policy{}, fmt.Errorf("unknown validation policy %q", validation)
	}
	switch fuel {
	case "", "default-petrol":
	case "reject":
		p.Fuel = FuelReject
	default:
		return Policy{}, fmt.Errorf("unknown fuel policy %q", fuel)
	}
	return p, nil
}

func (v Validation) String() string {
	if v == ValidationLenient {
		return "lenient"
	}
	return "strict"
}

func (f FuelPolicy) String() string {
	if f == FuelReject {
		return "reject"
	}
	return "default-petrol"
}
