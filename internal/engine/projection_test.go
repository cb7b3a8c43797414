package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propvest/internal/engine"
)

func investment() engine.ProjectionInput {
	m := loan(48_000_000, 620, 30)
	return engine.ProjectionInput{
		Loan:          &m,
		PropertyValue: 60_000_000,
		GrowthRate:    500,
		RentalIncome:  3_120_000,
		RentGrowth:    300,
		VacancyRate:   200,
		Expenses:      800_000,
		ExpenseGrowth: 250,
		Years:         10,
	}
}

func TestProject_EquityIdentity(t *testing.T) {
	p, err := engine.Project(investment())
	require.NoError(t, err)
	require.Len(t, p.Rows, 120)

	for _, r := range p.Rows {
		assert.Equal(t, r.PropertyValue, r.Equity+r.Balance, "period %d", r.Period)
		assert.Equal(t, r.Principal+r.Interest, r.Payment, "period %d", r.Period)
		assert.Equal(t, r.Rent-r.Expenses-r.Payment, r.NetCashflow, "period %d", r.Period)
	}
}

func TestProject_GrowthAtYearBoundary(t *testing.T) {
	p, err := engine.Project(investment())
	require.NoError(t, err)

	// Feb..Dec 2026 share the starting value, January 2027 is the first grown value.
	assert.Equal(t, engine.Cents(60_000_000), p.Rows[0].PropertyValue)
	assert.Equal(t, engine.Cents(60_000_000), p.Rows[10].PropertyValue)
	assert.Equal(t, 2027, p.Rows[11].Year)
	assert.Equal(t, engine.Cents(63_000_000), p.Rows[11].PropertyValue)

	// rent net of 2% vacancy, monthly
	assert.Equal(t, engine.Cents(254_800), p.Rows[0].Rent)
	assert.Equal(t, engine.Cents(66_667), p.Rows[0].Expenses)
	assert.Greater(t, p.Rows[11].Rent, p.Rows[10].Rent)
}

func TestProject_YearlySummaries(t *testing.T) {
	in := investment()
	p, err := engine.Project(in)
	require.NoError(t, err)

	require.NotEmpty(t, p.Yearly)
	first := p.Yearly[0]
	assert.Equal(t, 2026, first.Year)
	assert.Equal(t, 11, first.Periods)
	assert.Equal(t, in.Loan.Principal, first.OpeningBalance)

	var interest, principal engine.Cents
	for i, y := range p.Yearly {
		interest += y.Interest
		principal += y.Principal
		assert.Equal(t, y.PropertyValue, y.Equity+y.ClosingBalance)
		if i > 0 {
			assert.Equal(t, p.Yearly[i-1].ClosingBalance, y.OpeningBalance)
		}
		assert.Nil(t, y.Tax)
	}
	assert.Equal(t, p.TotalInterest, interest)
	assert.Equal(t, p.TotalPrincipal, principal)
}

func TestProject_TaxOverlay(t *testing.T) {
	in := investment()
	in.Tax = &engine.TaxProfile{MarginalRate: 3700, Depreciation: 600_000}

	p, err := engine.Project(in)
	require.NoError(t, err)

	for _, y := range p.Yearly {
		require.NotNil(t, y.Tax)
		taxable := y.Rent - (y.Expenses + y.Interest + 600_000)
		assert.Equal(t, taxable, y.Tax.TaxableIncome)
		assert.Equal(t, y.Rent-y.Expenses-y.Interest+y.Tax.TaxBenefit, y.Tax.EffectiveCashflow)
	}
	// heavy early interest makes the first full year negatively geared
	assert.True(t, p.Yearly[1].Tax.NegativelyGeared)
	assert.Greater(t, p.Yearly[1].Tax.TaxBenefit, engine.Cents(0))
}

func TestProject_HorizonStopsAtTerm(t *testing.T) {
	in := investment()
	in.Loan.TermYears = 5
	in.Years = 20

	p, err := engine.Project(in)
	require.NoError(t, err)
	assert.Len(t, p.Rows, 60)
	assert.True(t, p.PaidOff)
	assert.Equal(t, 60, p.PayoffPeriod)
	require.NotNil(t, p.PayoffDate)
	assert.Equal(t, time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), *p.PayoffDate)
}

func TestProject_ContinueAfterPayoff(t *testing.T) {
	in := investment()
	in.Loan.TermYears = 5
	in.Years = 8
	in.ContinueAfterPayoff = true

	p, err := engine.Project(in)
	require.NoError(t, err)
	require.Len(t, p.Rows, 96)
	assert.Equal(t, 60, p.PayoffPeriod)

	for _, r := range p.Rows[60:] {
		assert.Equal(t, engine.Cents(0), r.Balance)
		assert.Equal(t, engine.Cents(0), r.Payment)
		assert.Equal(t, r.PropertyValue, r.Equity)
		assert.Zero(t, r.LVR)
	}
	assert.Greater(t, p.Rows[95].PropertyValue, p.Rows[60].PropertyValue)
}

func TestProject_NoLoan(t *testing.T) {
	p, err := engine.Project(engine.ProjectionInput{
		StartDate:     start,
		PropertyValue: 40_000_000,
		GrowthRate:    400,
		RentalIncome:  2_400_000,
		Years:         3,
	})
	require.NoError(t, err)
	require.Len(t, p.Rows, 36)
	assert.False(t, p.PaidOff)
	assert.Nil(t, p.Savings)
	for _, r := range p.Rows {
		assert.Equal(t, r.PropertyValue, r.Equity)
		assert.Equal(t, engine.Cents(0), r.Payment)
	}
	assert.Equal(t, engine.Cents(200_000), p.Rows[0].NetCashflow)
}

func TestProject_GrowthForecastOverride(t *testing.T) {
	in := investment()
	in.GrowthForecasts = []engine.RateForecast{{Year: 2027, Rate: -1000}}

	p, err := engine.Project(in)
	require.NoError(t, err)
	assert.Equal(t, engine.Cents(54_000_000), p.Rows[11].PropertyValue)
	assert.Less(t, p.Rows[119].PropertyValue, p.Rows[0].PropertyValue)
}

func TestProject_SavingsAgainstBaseline(t *testing.T) {
	in := investment()
	in.ExtraPayments = []engine.ExtraPayment{{Amount: 100_000, Frequency: engine.Monthly, StartDate: start}}
	in.OffsetBalance = 2_000_000

	p, err := engine.Project(in)
	require.NoError(t, err)
	require.NotNil(t, p.Savings)

	s := p.Savings
	assert.Equal(t, 360, s.BaselinePeriods)
	assert.Greater(t, s.PeriodsSaved, 0)
	assert.Equal(t, s.BaselinePeriods-s.Periods, s.PeriodsSaved)
	assert.Greater(t, s.InterestSaved, engine.Cents(0))
	assert.Equal(t, s.BaselineInterest-s.Interest, s.InterestSaved)
}

func TestProject_OffsetContributionGrows(t *testing.T) {
	in := investment()
	in.OffsetBalance = 1_000_000
	in.OffsetContribution = 50_000

	p, err := engine.Project(in)
	require.NoError(t, err)
	assert.Equal(t, engine.Cents(1_000_000), p.Rows[0].Offset)
	assert.Equal(t, engine.Cents(1_050_000), p.Rows[1].Offset)
}

func TestProject_Validation(t *testing.T) {
	in := investment()
	in.PropertyValue = 40_000_000
	in.VacancyRate = 12_000
	in.LumpSums = []engine.LumpSum{{Amount: 1_000, Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}}

	_, err := engine.Project(in)
	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"loan.principal", "vacancy_rate", "lump_sums[0].date"}, fields)
}

func TestProject_NoLoanRequiresYears(t *testing.T) {
	_, err := engine.Project(engine.ProjectionInput{StartDate: start, PropertyValue: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "years")

	_, err = engine.Project(engine.ProjectionInput{Years: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_date")
}
