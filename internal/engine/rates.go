package engine

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// RateForecast overrides a base rate from Year onward until a later override supersedes it.
// The same shape serves interest-rate and property-growth forecasts.
type RateForecast struct {
	Year int         `json:"year"`
	Rate BasisPoints `json:"rate"`
}

// ResolveRate returns the rate of the latest forecast whose year is <= year, else base.
// Among forecasts sharing a year the one with the highest index wins.
func ResolveRate(base BasisPoints, year int, forecasts []RateForecast) BasisPoints {
	if len(forecasts) == 0 {
		return base
	}
	sorted := make([]RateForecast, len(forecasts))
	copy(sorted, forecasts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Year <= year {
			return sorted[i].Rate
		}
	}
	return base
}

// rateSchedule resolves rates repeatedly for one projection without re-sorting every period.
type rateSchedule struct {
	base   BasisPoints
	sorted []RateForecast
}

func newRateSchedule(base BasisPoints, forecasts []RateForecast) rateSchedule {
	sorted := make([]RateForecast, len(forecasts))
	copy(sorted, forecasts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })
	return rateSchedule{base: base, sorted: sorted}
}

func (s rateSchedule) at(year int) BasisPoints {
	for i := len(s.sorted) - 1; i >= 0; i-- {
		if s.sorted[i].Year <= year {
			return s.sorted[i].Rate
		}
	}
	return s.base
}

// PeriodRate converts an annual rate to the effective rate of one payment period under the
// region's compounding convention.
func PeriodRate(annual BasisPoints, freq Frequency, region Region) decimal.Decimal {
	ppy := freq.PerYear()
	if ppy == 0 || annual == 0 {
		return decimal.Zero
	}
	p := Params(region)
	r := annual.Fraction().InexactFloat64()

	var monthly float64
	switch p.Compounding {
	case CompoundDaily:
		daily := r / float64(p.DaysPerYear)
		monthly = math.Pow(1+daily, float64(p.DaysPerYear)/12) - 1
	default:
		monthly = r / 12
	}
	if ppy == 12 {
		return floatToDecimal(monthly)
	}
	return floatToDecimal(math.Pow(1+monthly, 12/float64(ppy)) - 1)
}
