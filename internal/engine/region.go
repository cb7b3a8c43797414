package engine

import (
	"fmt"
	"strings"
)

type Region string

const (
	RegionAU Region = "AU"
	RegionUS Region = "US"
	RegionUK Region = "UK"
)

type Compounding string

const (
	CompoundDaily   Compounding = "daily"
	CompoundMonthly Compounding = "monthly"
)

type Structure string

const (
	PrincipalAndInterest Structure = "principal_and_interest"
	InterestOnly         Structure = "interest_only"
)

type Frequency string

const (
	Weekly      Frequency = "weekly"
	Fortnightly Frequency = "fortnightly"
	Monthly     Frequency = "monthly"
	Annually    Frequency = "annually"
)

// PerYear is the number of periods of f in one year; 0 for an unknown frequency.
func (f Frequency) PerYear() int {
	switch f {
	case Weekly:
		return 52
	case Fortnightly:
		return 26
	case Monthly:
		return 12
	case Annually:
		return 1
	}
	return 0
}

// ParseFrequency accepts the canonical names plus the short forms used by the UI.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "week", "w":
		return Weekly, nil
	case "fortnightly", "fortnight", "biweekly", "f":
		return Fortnightly, nil
	case "monthly", "month", "m", "":
		return Monthly, nil
	case "annually", "annual", "yearly", "y":
		return Annually, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

func ParseStructure(s string) (Structure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "principal_and_interest", "p&i", "pi", "pandi", "":
		return PrincipalAndInterest, nil
	case "interest_only", "io":
		return InterestOnly, nil
	}
	return "", fmt.Errorf("unknown loan structure %q", s)
}

func ParseRegion(s string) (Region, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AU", "":
		return RegionAU, nil
	case "US":
		return RegionUS, nil
	case "UK", "GB":
		return RegionUK, nil
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// LMIBand is the premium, as a share of the loan, charged up to MaxLVR.
type LMIBand struct {
	MaxLVR  BasisPoints
	Premium BasisPoints
}

// RegionalParams are static per-region constants. Never mutated at runtime.
type RegionalParams struct {
	Region       Region
	Currency     string
	DaysPerYear  int
	Compounding  Compounding
	LMIThreshold BasisPoints
	StampDuty    BasisPoints
	DutyBrackets []Bracket
	LMIBands     []LMIBand
}

var regions = map[Region]RegionalParams{
	RegionAU: {
		Region:       RegionAU,
		Currency:     "AUD",
		DaysPerYear:  365,
		Compounding:  CompoundDaily,
		LMIThreshold: 8000,
		StampDuty:    400,
		// general transfer duty, ascending by threshold
		DutyBrackets: []Bracket{
			{Over: 0, Base: 0, Rate: 125},
			{Over: 1_700_000, Base: 21_200, Rate: 150},
			{Over: 3_600_000, Base: 49_700, Rate: 175},
			{Over: 9_700_000, Base: 156_400, Rate: 350},
			{Over: 36_400_000, Base: 1_091_400, Rate: 450},
			{Over: 121_200_000, Base: 4_907_400, Rate: 550},
		},
		LMIBands: []LMIBand{
			{MaxLVR: 8500, Premium: 100},
			{MaxLVR: 9000, Premium: 200},
			{MaxLVR: 9500, Premium: 350},
			{MaxLVR: 10000, Premium: 450},
		},
	},
	RegionUS: {
		Region:       RegionUS,
		Currency:     "USD",
		DaysPerYear:  360,
		Compounding:  CompoundMonthly,
		LMIThreshold: 8000,
		StampDuty:    100,
		LMIBands: []LMIBand{
			{MaxLVR: 8500, Premium: 50},
			{MaxLVR: 9000, Premium: 70},
			{MaxLVR: 9500, Premium: 90},
			{MaxLVR: 10000, Premium: 110},
		},
	},
	RegionUK: {
		Region:       RegionUK,
		Currency:     "GBP",
		DaysPerYear:  365,
		Compounding:  CompoundDaily,
		LMIThreshold: 9000,
		StampDuty:    300,
		DutyBrackets: []Bracket{
			{Over: 0, Base: 0, Rate: 0},
			{Over: 12_500_000, Base: 0, Rate: 200},
			{Over: 25_000_000, Base: 250_000, Rate: 500},
			{Over: 92_500_000, Base: 3_625_000, Rate: 1000},
			{Over: 150_000_000, Base: 9_375_000, Rate: 1200},
		},
		LMIBands: []LMIBand{
			{MaxLVR: 9500, Premium: 150},
			{MaxLVR: 10000, Premium: 250},
		},
	},
}

// Params returns the regional constants, falling back to AU for an unknown region.
func Params(r Region) RegionalParams {
	if p, ok := regions[r]; ok {
		return p
	}
	return regions[RegionAU]
}
