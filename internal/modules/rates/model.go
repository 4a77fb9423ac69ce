// README: Rate table keys: vehicle classes, cleaning categories, damage severities, fuel policies.
package rates

import "github.com/shopspring/decimal"

type VehicleClass string

const (
	ClassEconomy  VehicleClass = "economy"
	ClassStandard VehicleClass = "standard"
	ClassLuxury   VehicleClass = "luxury"
	ClassPremium  VehicleClass = "premium"
)

var VehicleClasses = []VehicleClass{ClassEconomy, ClassStandard, ClassLuxury, ClassPremium}

func (c VehicleClass) IsValid() bool {
	switch c {
	case ClassEconomy, ClassStandard, ClassLuxury, ClassPremium:
		return true
	}
	return false
}

func (c VehicleClass) String() string { return string(c) }

type CleaningType string

const (
	CleaningNone    CleaningType = "none"
	CleaningLight   CleaningType = "light"
	CleaningDeep    CleaningType = "deep"
	CleaningSmoking CleaningType = "smoking"
)

var CleaningTypes = []CleaningType{CleaningNone, CleaningLight, CleaningDeep, CleaningSmoking}

func (c CleaningType) IsValid() bool {
	switch c {
	case CleaningNone, CleaningLight, CleaningDeep, CleaningSmoking:
		return true
	}
	return false
}

func (c CleaningType) String() string { return string(c) }

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

var Severities = []Severity{SeverityMinor, SeverityModerate, SeverityMajor}

func (s Severity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeverityMajor:
		return true
	}
	return false
}

func (s Severity) String() string { return string(s) }

type FuelPolicy string

const (
	FuelFullToFull FuelPolicy = "FULL_TO_FULL"
	FuelSameToSame FuelPolicy = "SAME_TO_SAME"
	FuelPrepaid    FuelPolicy = "PREPAID"
)

func (p FuelPolicy) IsValid() bool {
	switch p {
	case FuelFullToFull, FuelSameToSame, FuelPrepaid:
		return true
	}
	return false
}

func (p FuelPolicy) String() string { return string(p) }

// Damage categories in the repair-cost matrix. DamageOther is the catch-all row.
const (
	DamageScratch = "SCRATCH"
	DamageDent    = "DENT"
	DamageCrack   = "CRACK"
	DamageBroken  = "BROKEN"
	DamageMissing = "MISSING"
	DamageStain   = "STAIN"
	DamageOther   = "OTHER"
)

var DamageTypes = []string{DamageScratch, DamageDent, DamageCrack, DamageBroken, DamageMissing, DamageStain, DamageOther}

// EstimateSource records how a repair cost was resolved.
type EstimateSource string

const (
	SourceExact        EstimateSource = "exact"
	SourceTypeFallback EstimateSource = "type_fallback"
	SourceDefault      EstimateSource = "default"
)

// Estimate is a repair cost together with the lookup path that produced it.
type Estimate struct {
	Cost   decimal.Decimal `json:"cost"`
	Source EstimateSource  `json:"source"`
}

// LowConfidence reports whether the cost came from a fallback row or the default.
func (e Estimate) LowConfidence() bool {
	return e.Source != SourceExact
}
