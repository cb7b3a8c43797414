package engine

// Bracket charges Base plus Rate on the portion of an amount above Over. Tables are sorted
// ascending by Over and the first bracket starts at zero.
type Bracket struct {
	Over Cents       `json:"over"`
	Base Cents       `json:"base"`
	Rate BasisPoints `json:"rate"`
}

// ResidentTaxBrackets is the default progressive income tax table (AU resident rates).
var ResidentTaxBrackets = []Bracket{
	{Over: 0, Base: 0, Rate: 0},
	{Over: 1_820_000, Base: 0, Rate: 1600},
	{Over: 4_500_000, Base: 428_800, Rate: 3000},
	{Over: 13_500_000, Base: 3_128_800, Rate: 3700},
	{Over: 19_000_000, Base: 5_163_800, Rate: 4500},
}

func bracketFor(amount Cents, table []Bracket) (Bracket, bool) {
	var found Bracket
	ok := false
	for _, b := range table {
		if amount <= b.Over && b.Over > 0 {
			break
		}
		found, ok = b, true
	}
	return found, ok
}

// BracketAmount applies a progressive table to amount.
func BracketAmount(amount Cents, table []Bracket) Cents {
	if amount <= 0 {
		return 0
	}
	b, ok := bracketFor(amount, table)
	if !ok {
		return 0
	}
	return b.Base + applyRate(amount-b.Over, b.Rate.Fraction())
}

// MarginalRate is the rate applied to the last dollar of income.
func MarginalRate(income Cents, table []Bracket) BasisPoints {
	if income <= 0 {
		return 0
	}
	b, _ := bracketFor(income, table)
	return b.Rate
}

// IncomeTax is the tax on income under the table.
func IncomeTax(income Cents, table []Bracket) Cents {
	return BracketAmount(income, table)
}

// StampDuty uses the region's progressive table when it has one, else its flat rate.
func StampDuty(price Cents, region Region) Cents {
	if price <= 0 {
		return 0
	}
	p := Params(region)
	if len(p.DutyBrackets) > 0 {
		return BracketAmount(price, p.DutyBrackets)
	}
	return applyRate(price, p.StampDuty.Fraction())
}

// LMIPremium is the mortgage insurance charged for a loan at the given LVR; zero at or
// below the region's threshold.
func LMIPremium(loan Cents, lvr BasisPoints, region Region) Cents {
	p := Params(region)
	if loan <= 0 || lvr <= p.LMIThreshold || len(p.LMIBands) == 0 {
		return 0
	}
	band := p.LMIBands[len(p.LMIBands)-1]
	for _, b := range p.LMIBands {
		if lvr <= b.MaxLVR {
			band = b
			break
		}
	}
	return applyRate(loan, band.Premium.Fraction())
}
