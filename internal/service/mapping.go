package service

import (
	"fmt"
	"strings"

	"propvest/internal/domain"
	"propvest/internal/engine"
)

// PropertyInputs converts stored records into engine inputs. Stored rates are decimal
// percentages and are converted to basis points here and nowhere else.
func PropertyInputs(portfolio domain.Portfolio, props []domain.Property) ([]engine.PropertyInput, error) {
	region, err := engine.ParseRegion(portfolio.Region)
	if err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", portfolio.ID, err)
	}

	out := make([]engine.PropertyInput, 0, len(props))
	for _, p := range props {
		in, err := projectionInput(p, region)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.ID, err)
		}
		in.Tax = taxProfile(portfolio, p)
		out = append(out, engine.PropertyInput{ID: p.ID, Name: p.Name, Projection: in})
	}
	return out, nil
}

func projectionInput(p domain.Property, region engine.Region) (engine.ProjectionInput, error) {
	value := p.CurrentValue
	if value == 0 {
		value = p.PurchasePrice
	}
	in := engine.ProjectionInput{
		StartDate:       p.PurchaseDate,
		PropertyValue:   engine.Cents(value),
		GrowthRate:      engine.PercentToBps(p.GrowthRate),
		ExpenseGrowth:   engine.PercentToBps(p.ExpenseGrowth),
		GrowthForecasts: forecasts(p.GrowthForecasts),
	}

	if p.Rental != nil && !p.OwnerOccupied {
		in.RentalIncome = engine.Cents(p.Rental.WeeklyRent * int64(engine.Weekly.PerYear()))
		in.VacancyRate = engine.PercentToBps(p.Rental.VacancyRate)
		in.RentGrowth = engine.PercentToBps(p.Rental.RentGrowth)
	}

	for _, e := range p.Expenses {
		freq, err := engine.ParseFrequency(defaultFrequency(e.Frequency, engine.Annually))
		if err != nil {
			return in, fmt.Errorf("expense %q: %w", e.Category, err)
		}
		in.Expenses += engine.Cents(e.Amount * int64(freq.PerYear()))
	}

	if l := p.Loan; l != nil {
		m, err := mortgageInput(*l, region)
		if err != nil {
			return in, err
		}
		in.Loan = &m
		in.OffsetBalance = engine.Cents(l.OffsetBalance)
		in.OffsetContribution = engine.Cents(l.OffsetContribution)
		in.RateForecasts = forecasts(l.RateForecasts)
		for _, x := range l.ExtraPayments {
			freq, err := engine.ParseFrequency(defaultFrequency(x.Frequency, engine.Monthly))
			if err != nil {
				return in, fmt.Errorf("extra payment: %w", err)
			}
			in.ExtraPayments = append(in.ExtraPayments, engine.ExtraPayment{
				Amount:    engine.Cents(x.Amount),
				Frequency: freq,
				StartDate: x.StartDate,
				EndDate:   x.EndDate,
			})
		}
		for _, s := range l.LumpSums {
			in.LumpSums = append(in.LumpSums, engine.LumpSum{Amount: engine.Cents(s.Amount), Date: s.Date})
		}
	}
	return in, nil
}

// taxProfile enables the tax overlay for investment properties once the owner's tax position
// or the property's depreciation is recorded.
func taxProfile(portfolio domain.Portfolio, p domain.Property) *engine.TaxProfile {
	if p.OwnerOccupied {
		return nil
	}
	if portfolio.MarginalRate == 0 && portfolio.OtherIncome == 0 && p.Depreciation == 0 {
		return nil
	}
	return &engine.TaxProfile{
		MarginalRate: engine.PercentToBps(portfolio.MarginalRate),
		OtherIncome:  engine.Cents(portfolio.OtherIncome),
		Depreciation: engine.Cents(p.Depreciation),
	}
}

func mortgageInput(l domain.Loan, region engine.Region) (engine.MortgageInput, error) {
	structure, err := engine.ParseStructure(l.Structure)
	if err != nil {
		return engine.MortgageInput{}, fmt.Errorf("loan %s: %w", l.ID, err)
	}
	freq, err := engine.ParseFrequency(l.Frequency)
	if err != nil {
		return engine.MortgageInput{}, fmt.Errorf("loan %s: %w", l.ID, err)
	}
	return engine.MortgageInput{
		Principal:         engine.Cents(l.Principal),
		AnnualRate:        engine.PercentToBps(l.InterestRate),
		TermYears:         l.TermYears,
		Structure:         structure,
		Frequency:         freq,
		Region:            region,
		InterestOnlyYears: l.InterestOnlyYears,
		StartDate:         l.StartDate,
	}, nil
}

func forecasts(in []domain.Forecast) []engine.RateForecast {
	if len(in) == 0 {
		return nil
	}
	out := make([]engine.RateForecast, len(in))
	for i, f := range in {
		out[i] = engine.RateForecast{Year: f.Year, Rate: engine.PercentToBps(f.Rate)}
	}
	return out
}

func defaultFrequency(s string, def engine.Frequency) string {
	if strings.TrimSpace(s) == "" {
		return string(def)
	}
	return s
}
