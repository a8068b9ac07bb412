package vehicle

import "strings"

// Reference is a lightweight pointer to a catalog vehicle, as shown in list views
// and stored in the compare selection. Identity is ID.
type Reference struct {
	ID           int64   `json:"id"`
	Slug         string  `json:"slug"`
	VehicleType  string  `json:"vehicleType,omitempty"`
	Category     string  `json:"category,omitempty"`
	Brand        string  `json:"brand,omitempty"`
	Model        string  `json:"model,omitempty"`
	Variant      string  `json:"variant,omitempty"`
	Year         int     `json:"year,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Transmission string  `json:"transmission,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty"`
	Power        float64 `json:"power,omitempty"`
	Torque       float64 `json:"torque,omitempty"`
}

// Hints are the fields the classifier looks at.
type Hints struct {
	VehicleType string
	Category    string
}

// Hints returns classification hints for the reference.
func (r Reference) Hints() Hints {
	return Hints{VehicleType: r.VehicleType, Category: r.Category}
}

// HasSlug reports whether the reference can be fetched by slug.
func (r Reference) HasSlug() bool { return strings.TrimSpace(r.Slug) != "" }

// Title is "Brand Model Variant" with blank parts skipped.
func (r Reference) Title() string {
	return joinNonBlank(r.Brand, r.Model, r.Variant)
}

func joinNonBlank(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
