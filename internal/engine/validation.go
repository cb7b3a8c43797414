package engine

import (
	"fmt"
	"strings"
	"time"
)

const (
	MaxTermYears       = 50
	MaxProjectionYears = 100
	// MaxPeriods bounds every simulation loop: a century of weekly payments.
	MaxPeriods = MaxProjectionYears * 52

	minRate BasisPoints = -10_000
	maxRate BasisPoints = 100_000
	maxLVR  BasisPoints = 10_000
	// whole, as a ratio ceiling for LVR and tax rates
	whole BasisPoints = 10_000
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found before a calculation starts.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateMortgage rejects structurally invalid loan parameters.
func ValidateMortgage(m MortgageInput) error {
	v := &ValidationError{}
	validateMortgage(v, "loan", m)
	return v.orNil()
}

func validateMortgage(v *ValidationError, prefix string, m MortgageInput) {
	if m.Principal <= 0 {
		v.add(prefix+".principal", "must be greater than zero")
	}
	if m.TermYears <= 0 {
		v.add(prefix+".term_years", "must be greater than zero")
	} else if m.TermYears > MaxTermYears {
		v.add(prefix+".term_years", "must not exceed %d years", MaxTermYears)
	}
	if m.AnnualRate <= minRate {
		v.add(prefix+".annual_rate", "must be above -100%%")
	} else if m.AnnualRate > maxRate {
		v.add(prefix+".annual_rate", "must not exceed %s", maxRate)
	}
	switch m.Structure {
	case PrincipalAndInterest, InterestOnly:
	default:
		v.add(prefix+".structure", "unknown structure %q", m.Structure)
	}
	switch m.Frequency {
	case Weekly, Fortnightly, Monthly:
	default:
		v.add(prefix+".frequency", "must be weekly, fortnightly or monthly")
	}
	if _, ok := regions[m.Region]; !ok {
		v.add(prefix+".region", "unknown region %q", m.Region)
	}
	if m.InterestOnlyYears < 0 {
		v.add(prefix+".interest_only_years", "must not be negative")
	} else if m.InterestOnlyYears > 0 && m.Structure != InterestOnly {
		v.add(prefix+".interest_only_years", "only applies to interest-only loans")
	} else if m.TermYears > 0 && m.InterestOnlyYears > m.TermYears {
		v.add(prefix+".interest_only_years", "must not exceed the loan term")
	}
}

// ValidateProjection rejects inputs that would make a projection meaningless.
func ValidateProjection(in ProjectionInput) error {
	v := &ValidationError{}
	validateProjection(v, "", in)
	return v.orNil()
}

func validateProjection(v *ValidationError, prefix string, in ProjectionInput) {
	start := in.startDate()
	if start.IsZero() {
		v.add(prefix+"start_date", "is required")
	}
	if in.Loan != nil {
		validateMortgage(v, prefix+"loan", *in.Loan)
		if in.PropertyValue > 0 && in.Loan.Principal > 0 && ratioBps(in.Loan.Principal, in.PropertyValue) > maxLVR {
			v.add(prefix+"loan.principal", "exceeds the property value (LVR above 100%%)")
		}
	}
	if in.PropertyValue < 0 {
		v.add(prefix+"property_value", "must not be negative")
	}
	if in.Years < 0 {
		v.add(prefix+"years", "must not be negative")
	} else if in.Years > MaxProjectionYears {
		v.add(prefix+"years", "must not exceed %d", MaxProjectionYears)
	}
	if in.Loan == nil && in.Years == 0 {
		v.add(prefix+"years", "is required when there is no loan")
	}
	if in.RentalIncome < 0 {
		v.add(prefix+"rental_income", "must not be negative")
	}
	if in.Expenses < 0 {
		v.add(prefix+"expenses", "must not be negative")
	}
	if in.VacancyRate < 0 || in.VacancyRate > 10_000 {
		v.add(prefix+"vacancy_rate", "must be between 0 and 100%%")
	}
	if in.OffsetBalance < 0 {
		v.add(prefix+"offset_balance", "must not be negative")
	}
	if in.OffsetContribution < 0 {
		v.add(prefix+"offset_contribution", "must not be negative")
	}
	for _, g := range []struct {
		name string
		rate BasisPoints
	}{{"growth_rate", in.GrowthRate}, {"rent_growth", in.RentGrowth}, {"expense_growth", in.ExpenseGrowth}} {
		if g.rate <= minRate {
			v.add(prefix+g.name, "must be above -100%%")
		}
	}
	validateForecasts(v, prefix+"rate_forecasts", in.RateForecasts, start)
	validateForecasts(v, prefix+"growth_forecasts", in.GrowthForecasts, start)

	for i, e := range in.ExtraPayments {
		field := fmt.Sprintf("%sextra_payments[%d]", prefix, i)
		if e.Amount <= 0 {
			v.add(field+".amount", "must be greater than zero")
		}
		if e.Frequency.PerYear() == 0 {
			v.add(field+".frequency", "unknown frequency %q", e.Frequency)
		}
		if e.StartDate.IsZero() {
			v.add(field+".start_date", "is required")
		}
		if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
			v.add(field+".end_date", "must not be before start_date")
		}
	}
	for i, l := range in.LumpSums {
		field := fmt.Sprintf("%slump_sums[%d]", prefix, i)
		if l.Amount <= 0 {
			v.add(field+".amount", "must be greater than zero")
		}
		if !start.IsZero() && l.Date.Before(start) {
			v.add(field+".date", "is before the loan start")
		}
	}
	if in.Tax != nil {
		if in.Tax.MarginalRate < 0 || in.Tax.MarginalRate > whole {
			v.add(prefix+"tax.marginal_rate", "must be between 0 and 100%%")
		}
		if in.Tax.Depreciation < 0 {
			v.add(prefix+"tax.depreciation", "must not be negative")
		}
	}
}

func validateForecasts(v *ValidationError, field string, forecasts []RateForecast, start time.Time) {
	for i, f := range forecasts {
		if f.Rate <= minRate {
			v.add(fmt.Sprintf("%s[%d].rate", field, i), "must be above -100%%")
		}
		if f.Rate > maxRate {
			v.add(fmt.Sprintf("%s[%d].rate", field, i), "must not exceed %s", maxRate)
		}
		if !start.IsZero() && f.Year < start.Year() {
			v.add(fmt.Sprintf("%s[%d].year", field, i), "%d is before the start year %d", f.Year, start.Year())
		}
	}
}

// ValidateGrowth rejects growth forecast inputs before any value is compounded.
func ValidateGrowth(start Cents, rate BasisPoints, startYear, years int, forecasts []RateForecast) error {
	v := &ValidationError{}
	if start < 0 {
		v.add("start_value", "must not be negative")
	}
	if rate <= minRate {
		v.add("growth_rate", "must be above -100%%")
	} else if rate > maxRate {
		v.add("growth_rate", "must not exceed %s", maxRate)
	}
	if years < 1 || years > MaxProjectionYears {
		v.add("years", "must be between 1 and %d", MaxProjectionYears)
	}
	var from time.Time
	if startYear > 0 {
		from = time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	validateForecasts(v, "forecasts", forecasts, from)
	return v.orNil()
}

// ValidateTax rejects a tax year with negative amounts or a marginal rate outside 0..100%.
func ValidateTax(in TaxInput) error {
	v := &ValidationError{}
	for _, f := range []struct {
		name   string
		amount Cents
	}{{"rental_income", in.RentalIncome}, {"expenses", in.Expenses}, {"interest", in.Interest}, {"depreciation", in.Depreciation}} {
		if f.amount < 0 {
			v.add(f.name, "must not be negative")
		}
	}
	if in.MarginalRate < 0 || in.MarginalRate > whole {
		v.add("marginal_rate", "must be between 0 and 100%%")
	}
	return v.orNil()
}

// ValidateLVR rejects a purchase whose loan exceeds the property value.
func ValidateLVR(loan, value Cents) error {
	v := &ValidationError{}
	if value <= 0 {
		v.add("property_value", "must be greater than zero")
	}
	if loan < 0 {
		v.add("loan_amount", "must not be negative")
	}
	if value > 0 && exceedsRatio(loan, value, maxLVR) {
		v.add("loan_amount", "exceeds the property value (LVR above 100%%)")
	}
	return v.orNil()
}
