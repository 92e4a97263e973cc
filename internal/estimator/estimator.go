// Package estimator converts raw activity inputs into a three-scope
// emissions breakdown. Estimate is a pure derivation: no persistence, no
// clock, no hidden state. Callers are responsible for stamping the result
// with a timestamp and owning user id before saving it.
package estimator

import (
	"math"

	"github.com/omraut/carbon-terminal/internal/model"
)

// FuelType selects the combustion coefficient for four-wheelers. EV is a low
// non-zero coefficient representing grid leakage, not a true zero.
type FuelType string

const (
	FuelPetrol FuelType = "Petrol"
	FuelDiesel FuelType = "Diesel"
	FuelCNG    FuelType = "CNG"
	FuelEV     FuelType = "EV"
)

// CookingFuel selects the per-kg coefficient for household cooking fuel.
type CookingFuel string

const (
	CookingLPG      CookingFuel = "LPG"
	CookingPNG      CookingFuel = "PNG"
	CookingKerosene CookingFuel = "Kerosene"
)

// CabinClass weights air-travel distance. Business burns roughly double.
type CabinClass string

const (
	ClassEconomy  CabinClass = "Economy"
	ClassBusiness CabinClass = "Business"
)

// Diet is the categorical lifestyle addend for scope 3.
type Diet string

const (
	DietNone        Diet = "None"
	DietVegan       Diet = "Vegan"
	DietVegetarian  Diet = "Vegetarian"
	DietPescatarian Diet = "Pescatarian"
	DietNonVeg      Diet = "Non-Veg"
)

// Emission coefficients, kg CO2e per unit of activity.
const (
	twoWheelerFactor = 2.31 // per litre petrol
	dieselFactor     = 2.68
	petrolFactor     = 2.31
	cngFactor        = 1.8
	evFactor         = 0.45 // grid leakage equivalent

	lpgFactor      = 2.98 // per kg
	pngFactor      = 2.05
	keroseneFactor = 2.5

	domesticEconomyFactor  = 0.11 // per km
	domesticBusinessFactor = 0.22
	intlEconomyFactor      = 0.18
	intlBusinessFactor     = 0.35
	taxiFactor             = 0.21
	waterFactor            = 0.0003 // per litre
	paperFactor            = 1.25   // per kg
	electronicsFactor      = 45     // per unit
	dairyFactor            = 1.4    // per unit

	dietVeganImpact       = 100
	dietVegetarianImpact  = 150
	dietPescatarianImpact = 220
	dietNonVegImpact      = 300

	// minEfficiency floors fuel efficiency before division so a zero or
	// negative entry cannot blow up into a division by zero.
	minEfficiency = 0.1
)

// Vehicle is one vehicle entry: fuel efficiency in km per litre and distance
// driven in km. The PUC fields carry certificate identifiers extracted from
// a scanned document; they do not affect the calculation.
type Vehicle struct {
	Efficiency float64 `json:"avg"`
	Distance   float64 `json:"distance"`
	PUC        string  `json:"puc,omitempty"`
	CertNo     string  `json:"cert_no,omitempty"`
}

// Scope1Input covers direct combustion: owned vehicles and cooking fuel.
// Two-wheelers always burn petrol; the four-wheeler fleet shares one fuel
// type selection.
type Scope1Input struct {
	TwoWheelers       []Vehicle   `json:"two_wheelers"`
	FourWheelerFuel   FuelType    `json:"four_wheeler_fuel"`
	FourWheelers      []Vehicle   `json:"four_wheelers"`
	CookingFuel       CookingFuel `json:"cooking_fuel"`
	CookingKgPerMonth float64     `json:"cooking_kg_per_month"`
}

// Scope2Input covers purchased electricity. SolarOffsetKWh is subtracted
// before the grid factor applies; an overstated offset floors at zero rather
// than producing negative emissions.
type Scope2Input struct {
	KWh            float64 `json:"kwh"`
	SolarOffsetKWh float64 `json:"solar_offset"`
}

// Scope3Input covers the value chain: travel, consumption and diet.
type Scope3Input struct {
	DomesticAirKm      float64    `json:"domestic_km"`
	DomesticClass      CabinClass `json:"domestic_class"`
	InternationalAirKm float64    `json:"international_km"`
	InternationalClass CabinClass `json:"international_class"`
	TaxiKm             float64    `json:"taxi_km"`
	WaterLiters        float64    `json:"water_liters"`
	PaperKg            float64    `json:"paper_kg"`
	ElectronicsUnits   float64    `json:"electronics_units"`
	DairyUnits         float64    `json:"dairy_units"`
	Lifestyle          Diet       `json:"lifestyle"`
}

// Input is the complete activity profile for one estimate.
type Input struct {
	Scope1 Scope1Input `json:"scope1"`
	Scope2 Scope2Input `json:"scope2"`
	Scope3 Scope3Input `json:"scope3"`
}

// Breakdown is the derived estimate in whole kg CO2e. Each scope is rounded
// independently and Total is the sum of the rounded scopes; the total is NOT
// re-rounded from the raw sum, so it can drift from round(s1+s2+s3) by the
// rounding residue.
type Breakdown struct {
	Scope1 int `json:"scope1"`
	Scope2 int `json:"scope2"`
	Scope3 int `json:"scope3"`
	Total  int `json:"total"`
}

// fuelUsed converts a vehicle entry into litres burned.
func fuelUsed(v Vehicle) float64 {
	return v.Distance / math.Max(minEfficiency, v.Efficiency)
}

func fourWheelerFactor(f FuelType) float64 {
	switch f {
	case FuelDiesel:
		return dieselFactor
	case FuelCNG:
		return cngFactor
	case FuelEV:
		return evFactor
	default:
		return petrolFactor
	}
}

func cookingFactor(f CookingFuel) float64 {
	switch f {
	case CookingLPG:
		return lpgFactor
	case CookingPNG:
		return pngFactor
	default:
		return keroseneFactor
	}
}

func dietImpact(d Diet) float64 {
	switch d {
	case DietVegan:
		return dietVeganImpact
	case DietVegetarian, "Veg":
		return dietVegetarianImpact
	case DietPescatarian:
		return dietPescatarianImpact
	case DietNonVeg:
		return dietNonVegImpact
	default:
		return 0
	}
}

func airFactor(class CabinClass, economy, business float64) float64 {
	if class == ClassBusiness {
		return business
	}
	return economy
}

// Estimate derives the three-scope breakdown from an activity profile and
// the current global calibration. Inputs are taken as-is: nothing rejects
// negative or absurd values apart from the efficiency floor.
func Estimate(in Input, cfg model.GlobalConfig) Breakdown {
	var s1 float64
	for _, v := range in.Scope1.TwoWheelers {
		s1 += fuelUsed(v) * twoWheelerFactor
	}
	f4 := fourWheelerFactor(in.Scope1.FourWheelerFuel)
	for _, v := range in.Scope1.FourWheelers {
		s1 += fuelUsed(v) * f4
	}
	s1 += in.Scope1.CookingKgPerMonth * cookingFactor(in.Scope1.CookingFuel)

	s2 := math.Max(0, (in.Scope2.KWh-in.Scope2.SolarOffsetKWh)*cfg.S2Factor)

	s3 := in.Scope3.DomesticAirKm*airFactor(in.Scope3.DomesticClass, domesticEconomyFactor, domesticBusinessFactor) +
		in.Scope3.InternationalAirKm*airFactor(in.Scope3.InternationalClass, intlEconomyFactor, intlBusinessFactor) +
		in.Scope3.TaxiKm*taxiFactor +
		in.Scope3.WaterLiters*waterFactor +
		in.Scope3.PaperKg*paperFactor +
		in.Scope3.ElectronicsUnits*electronicsFactor +
		in.Scope3.DairyUnits*dairyFactor +
		dietImpact(in.Scope3.Lifestyle)

	r1 := int(math.Round(s1))
	r2 := int(math.Round(s2))
	r3 := int(math.Round(s3))
	return Breakdown{Scope1: r1, Scope2: r2, Scope3: r3, Total: r1 + r2 + r3}
}
