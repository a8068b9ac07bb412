package vehicle

import (
	"encoding/json"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		in   string
		want Line
		ok   bool
	}{
		{"Bike", LineBike, true},
		{" car ", LineCar, true},
		{"BIKE", LineBike, true},
		{"bike", LineBike, true},
		{"", "", false},
		{"truck", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLine(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLine(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLine_Other(t *testing.T) {
	if LineBike.Other() != LineCar || LineCar.Other() != LineBike {
		t.Error("Other() should swap lines")
	}
	if Line("").Other() != "" {
		t.Error("unresolved line has no opposite")
	}
	if Line("Boat").IsValid() {
		t.Error("Boat should not be valid")
	}
}

func TestReference_Title(t *testing.T) {
	r := Reference{Brand: "Royal Enfield", Model: "Classic 350", Variant: " "}
	if got := r.Title(); got != "Royal Enfield Classic 350" {
		t.Errorf("Title() = %q", got)
	}
}

func TestDetails_DecodesBothVintages(t *testing.T) {
	raw := `{
		"id": 7, "slug": "nexon-ev", "category": "SUV", "price": 1450000,
		"details": {
			"warrantyYears": 3, "mileage": 17.2,
			"ev": {"range": 465, "motorPower": 144},
			"car": {"bootSpace": 350}
		}
	}`
	var d Details
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Specs == nil || d.Specs.EV == nil || *d.Specs.EV.Range != 465 {
		t.Fatalf("nested ev group not decoded: %+v", d.Specs)
	}
	if *d.Specs.Mileage != 17.2 {
		t.Errorf("flat mileage = %v", *d.Specs.Mileage)
	}
	if d.Specs.Engine != nil {
		t.Error("absent engine group should stay nil")
	}

	ref := d.Reference()
	if ref.ID != 7 || ref.Slug != "nexon-ev" || ref.Price != 1450000 || ref.Category != "SUV" {
		t.Errorf("Reference() = %+v", ref)
	}
}
