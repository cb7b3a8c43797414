package engine

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

type PropertyInput struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Projection ProjectionInput `json:"projection"`
}

type PropertyProjection struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Projection Projection `json:"projection"`
}

// PortfolioYear is the year-end position of every property owned in Year.
type PortfolioYear struct {
	Year          int     `json:"year"`
	Properties    int     `json:"properties"`
	PropertyValue Cents   `json:"property_value"`
	Debt          Cents   `json:"debt"`
	Equity        Cents   `json:"equity"`
	LVR           Percent `json:"lvr"`
	Rent          Cents   `json:"rent"`
	Expenses      Cents   `json:"expenses"`
	Repayments    Cents   `json:"repayments"`
	Interest      Cents   `json:"interest"`
	NetCashflow   Cents   `json:"net_cashflow"`
	TaxBenefit    Cents   `json:"tax_benefit"`
	TaxPayable    Cents   `json:"tax_payable"`
}

type PortfolioProjection struct {
	Years      []PortfolioYear      `json:"years"`
	Properties []PropertyProjection `json:"properties"`
}

// ProjectPortfolio projects every property over years in parallel and merges the results by
// calendar year. Paid-off properties keep accruing value and rent until the horizon.
func ProjectPortfolio(ctx context.Context, props []PropertyInput, years int) (PortfolioProjection, error) {
	v := &ValidationError{}
	if len(props) == 0 {
		v.add("properties", "at least one property is required")
	}
	if years <= 0 || years > MaxProjectionYears {
		v.add("years", "must be between 1 and %d", MaxProjectionYears)
	}
	inputs := make([]ProjectionInput, len(props))
	for i, p := range props {
		in := p.Projection
		in.Years = years
		in.ContinueAfterPayoff = true
		inputs[i] = in
		validateProjection(v, fmt.Sprintf("properties[%d].", i), in)
	}
	if err := v.orNil(); err != nil {
		return PortfolioProjection{}, err
	}

	results := make([]PropertyProjection, len(props))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range props {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = PropertyProjection{ID: p.ID, Name: p.Name, Projection: simulate(inputs[i])}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PortfolioProjection{}, err
	}

	return PortfolioProjection{Years: rollup(results), Properties: results}, nil
}

func rollup(props []PropertyProjection) []PortfolioYear {
	byYear := make(map[int]*PortfolioYear)
	for _, p := range props {
		for _, y := range p.Projection.Yearly {
			agg, ok := byYear[y.Year]
			if !ok {
				agg = &PortfolioYear{Year: y.Year}
				byYear[y.Year] = agg
			}
			agg.Properties++
			agg.PropertyValue += y.PropertyValue
			agg.Debt += y.ClosingBalance
			agg.Equity += y.Equity
			agg.Rent += y.Rent
			agg.Expenses += y.Expenses
			agg.Repayments += y.Repayments
			agg.Interest += y.Interest
			agg.NetCashflow += y.NetCashflow
			if y.Tax != nil {
				agg.TaxBenefit += y.Tax.TaxBenefit
				agg.TaxPayable += y.Tax.TaxPayable
			}
		}
	}

	out := make([]PortfolioYear, 0, len(byYear))
	for _, agg := range byYear {
		agg.LVR = ratio(agg.Debt, agg.PropertyValue)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
