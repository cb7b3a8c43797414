package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propvest/internal/engine"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func loan(principal engine.Cents, rate engine.BasisPoints, years int) engine.MortgageInput {
	return engine.MortgageInput{
		Principal:  principal,
		AnnualRate: rate,
		TermYears:  years,
		Structure:  engine.PrincipalAndInterest,
		Frequency:  engine.Monthly,
		Region:     engine.RegionAU,
		StartDate:  start,
	}
}

func TestCalculateRepayment_WorkedExample(t *testing.T) {
	// $500,000 at 6.00% over 30 years, AU daily compounding
	payment, err := engine.CalculateRepayment(loan(50_000_000, 600, 30))
	require.NoError(t, err)
	assert.InDelta(t, 299_800, int64(payment), 1_000, "monthly payment near $2,998, got %d", payment)

	schedule, err := engine.GenerateSchedule(loan(50_000_000, 600, 30), engine.ScheduleOptions{})
	require.NoError(t, err)
	require.Len(t, schedule.Entries, 360)
	assert.Equal(t, engine.Cents(0), schedule.Entries[359].Balance)
	assert.Equal(t, engine.Cents(50_000_000), schedule.TotalPrincipal)
	assert.Equal(t, schedule.TotalPrincipal+schedule.TotalInterest, schedule.TotalPaid)
}

func TestCalculateRepayment_MonthlyCompounding(t *testing.T) {
	// $100,000 at 5.00% for 30 years is $536.82 under nominal monthly compounding.
	m := loan(10_000_000, 500, 30)
	m.Region = engine.RegionUS

	payment, err := engine.CalculateRepayment(m)
	require.NoError(t, err)
	assert.Equal(t, engine.Cents(53_682), payment)

	schedule, err := engine.GenerateSchedule(m, engine.ScheduleOptions{})
	require.NoError(t, err)
	assert.Equal(t, engine.Cents(41_667), schedule.Entries[0].Interest)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), schedule.Entries[0].Date)
}

func TestCalculateRepayment_ZeroRate(t *testing.T) {
	payment, err := engine.CalculateRepayment(loan(1_200_000, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, engine.Cents(100_000), payment)

	schedule, err := engine.GenerateSchedule(loan(1_200_000, 0, 1), engine.ScheduleOptions{})
	require.NoError(t, err)
	assert.Equal(t, engine.Cents(0), schedule.TotalInterest)
	assert.Equal(t, engine.Cents(1_200_000), schedule.TotalPaid)
}

func TestCalculateRepayment_InterestOnly(t *testing.T) {
	m := loan(50_000_000, 600, 30)
	m.Structure = engine.InterestOnly

	payment, err := engine.CalculateRepayment(m)
	require.NoError(t, err)

	rate := engine.PeriodRate(600, engine.Monthly, engine.RegionAU)
	want := engine.Cents(decimal.NewFromInt(50_000_000).Mul(rate).Round(0).IntPart())
	assert.Equal(t, want, payment)
}

func TestGenerateSchedule_Closure(t *testing.T) {
	cases := []struct {
		name string
		m    engine.MortgageInput
	}{
		{"monthly au", loan(50_000_000, 600, 30)},
		{"weekly", func() engine.MortgageInput {
			m := loan(30_000_000, 549, 25)
			m.Frequency = engine.Weekly
			return m
		}()},
		{"fortnightly uk", func() engine.MortgageInput {
			m := loan(25_000_000, 425, 20)
			m.Frequency = engine.Fortnightly
			m.Region = engine.RegionUK
			return m
		}()},
		{"short us", func() engine.MortgageInput {
			m := loan(1_234_567, 899, 2)
			m.Region = engine.RegionUS
			return m
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := engine.GenerateSchedule(tc.m, engine.ScheduleOptions{})
			require.NoError(t, err)
			require.Len(t, s.Entries, tc.m.Periods())

			assert.Equal(t, tc.m.Principal, s.TotalPrincipal)
			assert.Equal(t, engine.Cents(0), s.Entries[len(s.Entries)-1].Balance)
			for _, e := range s.Entries {
				assert.Equal(t, e.Principal+e.Interest, e.Payment, "period %d", e.Period)
			}
		})
	}
}

func TestGenerateSchedule_InterestOnlyPlateau(t *testing.T) {
	m := loan(40_000_000, 650, 30)
	m.Structure = engine.InterestOnly
	m.InterestOnlyYears = 5

	s, err := engine.GenerateSchedule(m, engine.ScheduleOptions{})
	require.NoError(t, err)
	require.Len(t, s.Entries, 360)

	for _, e := range s.Entries[:60] {
		assert.Equal(t, engine.Cents(0), e.Principal, "period %d", e.Period)
		assert.Equal(t, m.Principal, e.Balance, "period %d", e.Period)
	}
	assert.Greater(t, s.Entries[60].Principal, engine.Cents(0))
	assert.Greater(t, s.Entries[60].Payment, s.Entries[59].Payment)
	assert.Equal(t, engine.Cents(0), s.Entries[359].Balance)
	assert.Equal(t, m.Principal, s.TotalPrincipal)
}

func TestGenerateSchedule_InterestOnlyWholeTermBalloon(t *testing.T) {
	m := loan(20_000_000, 500, 5)
	m.Structure = engine.InterestOnly

	s, err := engine.GenerateSchedule(m, engine.ScheduleOptions{})
	require.NoError(t, err)
	require.Len(t, s.Entries, 60)

	last := s.Entries[59]
	assert.Equal(t, m.Principal, last.Principal)
	assert.Equal(t, engine.Cents(0), last.Balance)
}

func TestGenerateSchedule_ExtraPaymentReducesTerm(t *testing.T) {
	m := loan(50_000_000, 600, 30)
	base, err := engine.GenerateSchedule(m, engine.ScheduleOptions{})
	require.NoError(t, err)

	extra, err := engine.GenerateSchedule(m, engine.ScheduleOptions{
		ExtraPayments: []engine.ExtraPayment{{Amount: 50_000, Frequency: engine.Monthly, StartDate: start}},
	})
	require.NoError(t, err)

	assert.Less(t, extra.Periods, base.Periods)
	assert.Less(t, extra.TotalInterest, base.TotalInterest)
	assert.Equal(t, m.Principal, extra.TotalPrincipal)
	assert.Equal(t, engine.Cents(0), extra.Entries[len(extra.Entries)-1].Balance)
}

func TestGenerateSchedule_ExtraPaymentCadenceConversion(t *testing.T) {
	m := loan(10_000_000, 500, 10)
	s, err := engine.GenerateSchedule(m, engine.ScheduleOptions{
		ExtraPayments: []engine.ExtraPayment{{Amount: 10_000, Frequency: engine.Weekly, StartDate: start}},
	})
	require.NoError(t, err)
	// 52 weekly payments spread over 12 monthly periods
	assert.Equal(t, engine.Cents(43_333), s.Entries[0].Extra)
}

func TestGenerateSchedule_ExtraPaymentWindow(t *testing.T) {
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	s, err := engine.GenerateSchedule(loan(10_000_000, 500, 10), engine.ScheduleOptions{
		ExtraPayments: []engine.ExtraPayment{{
			Amount:    20_000,
			Frequency: engine.Monthly,
			StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   &end,
		}},
	})
	require.NoError(t, err)

	for _, e := range s.Entries {
		active := !e.Date.Before(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) && !e.Date.After(end)
		if active {
			assert.Equal(t, engine.Cents(20_000), e.Extra, "period %d", e.Period)
		} else {
			assert.Equal(t, engine.Cents(0), e.Extra, "period %d", e.Period)
		}
	}
}

func TestGenerateSchedule_LumpSum(t *testing.T) {
	m := loan(10_000_000, 500, 10)
	s, err := engine.GenerateSchedule(m, engine.ScheduleOptions{
		LumpSums: []engine.LumpSum{{Amount: 2_000_000, Date: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)}},
	})
	require.NoError(t, err)

	// period 3 covers [1 Mar, 1 Apr)
	assert.Equal(t, engine.Cents(0), s.Entries[1].Extra)
	assert.Equal(t, engine.Cents(2_000_000), s.Entries[2].Extra)
	assert.Equal(t, engine.Cents(0), s.Entries[3].Extra)
	assert.Equal(t, m.Principal, s.TotalPrincipal)
}

func TestGenerateSchedule_LumpSumPaysOff(t *testing.T) {
	m := loan(1_000_000, 500, 5)
	s, err := engine.GenerateSchedule(m, engine.ScheduleOptions{
		LumpSums: []engine.LumpSum{{Amount: 5_000_000, Date: start}},
	})
	require.NoError(t, err)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, m.Principal, s.Entries[0].Principal)
	assert.Equal(t, engine.Cents(0), s.Entries[0].Balance)
}

func TestGenerateSchedule_OffsetReducesInterest(t *testing.T) {
	m := loan(10_000_000, 600, 25)
	s, err := engine.GenerateSchedule(m, engine.ScheduleOptions{OffsetBalance: 10_000_000})
	require.NoError(t, err)
	assert.Equal(t, engine.Cents(0), s.Entries[0].Interest)

	base, err := engine.GenerateSchedule(m, engine.ScheduleOptions{})
	require.NoError(t, err)
	assert.Less(t, s.TotalInterest, base.TotalInterest)
}

func TestGenerateSchedule_RateForecastRecomputesPayment(t *testing.T) {
	m := loan(50_000_000, 600, 30)
	s, err := engine.GenerateSchedule(m, engine.ScheduleOptions{
		RateForecasts: []engine.RateForecast{{Year: 2031, Rate: 800}},
	})
	require.NoError(t, err)

	var before, after engine.AmortizationEntry
	for _, e := range s.Entries {
		if e.Date.Year() == 2030 {
			before = e
		}
		if e.Date.Year() == 2031 && after.Period == 0 {
			after = e
		}
	}
	assert.Equal(t, engine.BasisPoints(600), before.Rate)
	assert.Equal(t, engine.BasisPoints(800), after.Rate)
	assert.Greater(t, after.Payment, before.Payment)

	require.Len(t, s.Entries, 360)
	assert.Equal(t, engine.Cents(0), s.Entries[359].Balance)
	assert.Equal(t, m.Principal, s.TotalPrincipal)
}

func TestGenerateSchedule_MonthEndClamping(t *testing.T) {
	m := loan(1_000_000, 500, 1)
	m.StartDate = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	s, err := engine.GenerateSchedule(m, engine.ScheduleOptions{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), s.Entries[0].Date)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), s.Entries[1].Date)
}

func TestAmortizePeriod_Conservation(t *testing.T) {
	rate := engine.PeriodRate(600, engine.Monthly, engine.RegionAU)
	cases := []struct {
		name string
		in   engine.PeriodInput
	}{
		{"regular", engine.PeriodInput{Balance: 50_000_000, Rate: rate, Structure: engine.PrincipalAndInterest, Payment: 300_000}},
		{"interest only", engine.PeriodInput{Balance: 50_000_000, Rate: rate, Structure: engine.InterestOnly}},
		{"extra capped", engine.PeriodInput{Balance: 100_000, Rate: rate, Structure: engine.PrincipalAndInterest, Payment: 300_000, Extra: 1_000_000}},
		{"offset", engine.PeriodInput{Balance: 50_000_000, Offset: 60_000_000, Rate: rate, Structure: engine.PrincipalAndInterest, Payment: 300_000}},
		{"final", engine.PeriodInput{Balance: 12_345, Rate: rate, Structure: engine.PrincipalAndInterest, Payment: 10_000, Final: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := engine.AmortizePeriod(tc.in)
			assert.Equal(t, res.Principal+res.Interest, res.Payment)
			assert.Equal(t, tc.in.Balance-res.Principal, res.Balance)
			assert.GreaterOrEqual(t, res.Balance, engine.Cents(0))
		})
	}
}

func TestAmortizePeriod_ZeroBalance(t *testing.T) {
	res := engine.AmortizePeriod(engine.PeriodInput{Balance: 0, Payment: 1_000})
	assert.Equal(t, engine.PeriodResult{}, res)
}

func TestValidateMortgage(t *testing.T) {
	m := loan(-5, 600, 0)
	m.Frequency = "daily"

	err := engine.ValidateMortgage(m)
	require.Error(t, err)

	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["loan.principal"])
	assert.True(t, fields["loan.term_years"])
	assert.True(t, fields["loan.frequency"])

	_, err = engine.CalculateRepayment(m)
	assert.Error(t, err)
}

func TestValidateMortgage_RateFloor(t *testing.T) {
	err := engine.ValidateMortgage(loan(1_000_000, -10_000, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loan.annual_rate")
}

func TestGenerateSchedule_RejectsForecastBeforeStart(t *testing.T) {
	_, err := engine.GenerateSchedule(loan(1_000_000, 500, 10), engine.ScheduleOptions{
		RateForecasts: []engine.RateForecast{{Year: 2020, Rate: 700}},
	})
	require.Error(t, err)

	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "rate_forecasts[0].year", verr.Fields[0].Field)
}
