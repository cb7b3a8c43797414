package engine

// GrowthForecast is a property value trajectory under compound annual growth.
// Values[0] is the starting value and Values[i] = round(Values[i-1] × (1 + rate)).
type GrowthForecast struct {
	Years              []int       `json:"years"`
	Values             []Cents     `json:"values"`
	GrowthRate         BasisPoints `json:"growth_rate_bps"`
	TotalGrowth        Cents       `json:"total_growth"`
	TotalGrowthPercent Percent     `json:"total_growth_percent"`
}

// ForecastGrowth compounds start once per year for years years from startYear. Forecasts
// override the base rate from their year onward.
func ForecastGrowth(start Cents, rate BasisPoints, startYear, years int, forecasts []RateForecast) GrowthForecast {
	if years < 0 {
		years = 0
	}
	schedule := newRateSchedule(rate, forecasts)

	out := GrowthForecast{
		Years:      make([]int, 0, years+1),
		Values:     make([]Cents, 0, years+1),
		GrowthRate: rate,
	}
	out.Years = append(out.Years, startYear)
	out.Values = append(out.Values, start)
	for i := 1; i <= years; i++ {
		y := startYear + i
		out.Years = append(out.Years, y)
		out.Values = append(out.Values, grow(out.Values[i-1], schedule.at(y)))
	}

	last := out.Values[len(out.Values)-1]
	out.TotalGrowth = last - start
	out.TotalGrowthPercent = ratio(out.TotalGrowth, start)
	return out
}
