package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propvest/internal/engine"
)

func TestCompareScenarios_Symmetry(t *testing.T) {
	a := engine.Scenario{Name: "Fixed 6.0%", Loan: loan(50_000_000, 600, 30)}
	b := engine.Scenario{Name: "Variable 5.5% 25y", Loan: loan(50_000_000, 550, 25)}

	ab, err := engine.CompareScenarios(a, b)
	require.NoError(t, err)
	ba, err := engine.CompareScenarios(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab.Difference, -ba.Difference)
	assert.Equal(t, ab.DifferencePercent, -ba.DifferencePercent)
	assert.Equal(t, "Variable 5.5% 25y", ab.Cheaper)
	assert.Equal(t, ab.Cheaper, ba.Cheaper)
	assert.Equal(t, ab.Recommendation, ba.Recommendation)
	assert.Greater(t, ab.Difference, engine.Cents(0))
	assert.Equal(t, ab.A.Schedule.TotalPaid-ab.B.Schedule.TotalPaid, ab.Difference)
	assert.Contains(t, ab.Recommendation, "Variable 5.5% 25y is cheaper than Fixed 6.0%")
}

func TestCompareScenarios_EqualCost(t *testing.T) {
	a := engine.Scenario{Loan: loan(30_000_000, 500, 20)}
	got, err := engine.CompareScenarios(a, a)
	require.NoError(t, err)

	assert.Equal(t, engine.Cents(0), got.Difference)
	assert.Empty(t, got.Cheaper)
	assert.Contains(t, got.Recommendation, "equal cost")
	assert.Equal(t, "Scenario A", got.A.Name)
	assert.Equal(t, "Scenario B", got.B.Name)
}

func TestCompareScenarios_Validation(t *testing.T) {
	bad := loan(0, 500, 20)
	_, err := engine.CompareScenarios(engine.Scenario{Loan: loan(1_000_000, 500, 20)}, engine.Scenario{Loan: bad})

	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "b.loan.principal", verr.Fields[0].Field)
}

func TestProjectPortfolio(t *testing.T) {
	short := loan(20_000_000, 600, 5)
	props := []engine.PropertyInput{
		{ID: "p1", Name: "Unit", Projection: engine.ProjectionInput{
			Loan:          &short,
			PropertyValue: 40_000_000,
			GrowthRate:    400,
			RentalIncome:  2_000_000,
		}},
		{ID: "p2", Name: "House", Projection: investment()},
		{ID: "p3", Name: "Home", Projection: engine.ProjectionInput{
			StartDate:     start,
			PropertyValue: 90_000_000,
			GrowthRate:    300,
		}},
	}

	got, err := engine.ProjectPortfolio(context.Background(), props, 10)
	require.NoError(t, err)
	require.Len(t, got.Properties, 3)
	assert.Equal(t, "p2", got.Properties[1].ID)

	unit := got.Properties[0].Projection
	require.Len(t, unit.Rows, 120)
	assert.Equal(t, 60, unit.PayoffPeriod)
	assert.Equal(t, engine.Cents(0), unit.Rows[119].Balance)

	require.NotEmpty(t, got.Years)
	for i, y := range got.Years {
		assert.Equal(t, 3, y.Properties, "year %d", y.Year)
		assert.Equal(t, y.PropertyValue, y.Equity+y.Debt, "year %d", y.Year)
		if i > 0 {
			assert.Greater(t, y.Year, got.Years[i-1].Year)
		}
	}
	first := got.Years[0]
	assert.Equal(t, engine.Cents(40_000_000+60_000_000+90_000_000), first.PropertyValue)
}

func TestProjectPortfolio_TaxRollup(t *testing.T) {
	geared := investment()
	geared.Tax = &engine.TaxProfile{MarginalRate: 3700, Depreciation: 800_000}
	derived := investment()
	derived.RentalIncome = 2_600_000
	derived.Tax = &engine.TaxProfile{OtherIncome: 12_000_000, Depreciation: 400_000}
	untaxed := investment()

	got, err := engine.ProjectPortfolio(context.Background(), []engine.PropertyInput{
		{ID: "a", Projection: geared},
		{ID: "b", Projection: derived},
		{ID: "c", Projection: untaxed},
	}, 5)
	require.NoError(t, err)
	require.Len(t, got.Years, 5)

	for i, y := range got.Years {
		var benefit, payable engine.Cents
		for _, p := range got.Properties {
			s := p.Projection.Yearly[i]
			require.Equal(t, y.Year, s.Year)
			if s.Tax != nil {
				benefit += s.Tax.TaxBenefit
				payable += s.Tax.TaxPayable
			}
		}
		assert.Equal(t, benefit, y.TaxBenefit, "year %d", y.Year)
		assert.Equal(t, payable, y.TaxPayable, "year %d", y.Year)
	}
	assert.Nil(t, got.Properties[2].Projection.Yearly[0].Tax)
	assert.Greater(t, got.Years[0].TaxBenefit, engine.Cents(0))
}

func TestProjectPortfolio_Validation(t *testing.T) {
	_, err := engine.ProjectPortfolio(context.Background(), nil, 0)
	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)

	bad := investment()
	bad.RentalIncome = -1
	_, err = engine.ProjectPortfolio(context.Background(), []engine.PropertyInput{{ID: "x", Projection: bad}}, 5)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "properties[0].rental_income", verr.Fields[0].Field)
}

func TestProjectPortfolio_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ProjectPortfolio(ctx, []engine.PropertyInput{{ID: "x", Projection: investment()}}, 5)
	assert.ErrorIs(t, err, context.Canceled)
}
