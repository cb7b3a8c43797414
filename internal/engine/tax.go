package engine

// TaxProfile enables the per-year tax overlay on a projection. When MarginalRate is zero it
// is derived from OtherIncome plus the year's net rental result under Brackets.
type TaxProfile struct {
	MarginalRate BasisPoints `json:"marginal_rate_bps,omitempty"`
	OtherIncome  Cents       `json:"other_income,omitempty"`
	Depreciation Cents       `json:"depreciation"` // annual
	Brackets     []Bracket   `json:"brackets,omitempty"`
}

func (p TaxProfile) rateFor(taxable Cents) BasisPoints {
	if p.MarginalRate > 0 {
		return p.MarginalRate
	}
	table := p.Brackets
	if len(table) == 0 {
		table = ResidentTaxBrackets
	}
	income := p.OtherIncome
	if taxable > 0 {
		income += taxable
	}
	return MarginalRate(income, table)
}

// TaxInput is one year of rental results.
type TaxInput struct {
	RentalIncome Cents       `json:"rental_income"`
	Expenses     Cents       `json:"expenses"`
	Interest     Cents       `json:"interest"`
	Depreciation Cents       `json:"depreciation"`
	MarginalRate BasisPoints `json:"marginal_rate_bps"`
}

// TaxCalculation layers tax on a year of rental results. It never feeds back into a projection.
type TaxCalculation struct {
	TaxableIncome     Cents       `json:"taxable_income"`
	MarginalRate      BasisPoints `json:"marginal_rate_bps"`
	TaxBenefit        Cents       `json:"tax_benefit"`
	TaxPayable        Cents       `json:"tax_payable"`
	PreTaxCashflow    Cents       `json:"pre_tax_cashflow"`
	EffectiveCashflow Cents       `json:"effective_cashflow"`
	AfterTaxCashflow  Cents       `json:"after_tax_cashflow"`
	NegativelyGeared  bool        `json:"negatively_geared"`
}

// CalculateTax applies negative gearing: a loss earns a benefit of |loss| × marginal rate.
// EffectiveCashflow = rent − expenses − interest + benefit; AfterTaxCashflow additionally
// subtracts tax on a positive result.
func CalculateTax(in TaxInput) TaxCalculation {
	taxable := in.RentalIncome - (in.Expenses + in.Interest + in.Depreciation)
	rate := in.MarginalRate.Fraction()

	out := TaxCalculation{
		TaxableIncome:  taxable,
		MarginalRate:   in.MarginalRate,
		PreTaxCashflow: in.RentalIncome - in.Expenses - in.Interest,
	}
	if taxable < 0 {
		out.NegativelyGeared = true
		out.TaxBenefit = applyRate(-taxable, rate)
	} else {
		out.TaxPayable = applyRate(taxable, rate)
	}
	out.EffectiveCashflow = out.PreTaxCashflow + out.TaxBenefit
	out.AfterTaxCashflow = out.EffectiveCashflow - out.TaxPayable
	return out
}
