package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtraPayment is a recurring principal contribution active within [StartDate, EndDate].
type ExtraPayment struct {
	Amount    Cents      `json:"amount"`
	Frequency Frequency  `json:"frequency"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func (e ExtraPayment) activeOn(d time.Time) bool {
	if d.Before(e.StartDate) {
		return false
	}
	return e.EndDate == nil || !d.After(*e.EndDate)
}

// perPeriod converts the amount to the loan's payment cadence.
func (e ExtraPayment) perPeriod(loan Frequency) Cents {
	if e.Frequency == loan || loan.PerYear() == 0 {
		return e.Amount
	}
	perYear := e.Amount.decimal().Mul(decimal.NewFromInt(int64(e.Frequency.PerYear())))
	return roundCents(perYear.Div(decimal.NewFromInt(int64(loan.PerYear()))))
}

// LumpSum is a one-off principal contribution applied in the period containing Date.
type LumpSum struct {
	Amount Cents     `json:"amount"`
	Date   time.Time `json:"date"`
}

// ProjectionInput is the full snapshot for projecting one property and its loan.
type ProjectionInput struct {
	Loan *MortgageInput `json:"loan,omitempty"`
	// StartDate is used only when there is no loan; otherwise the loan's start applies.
	StartDate time.Time `json:"start_date,omitempty"`

	PropertyValue Cents       `json:"property_value"`
	GrowthRate    BasisPoints `json:"growth_rate_bps"`

	RentalIncome  Cents       `json:"rental_income"` // annual, gross
	RentGrowth    BasisPoints `json:"rent_growth_bps"`
	VacancyRate   BasisPoints `json:"vacancy_rate_bps"`
	Expenses      Cents       `json:"expenses"` // annual
	ExpenseGrowth BasisPoints `json:"expense_growth_bps"`

	OffsetBalance      Cents `json:"offset_balance"`
	OffsetContribution Cents `json:"offset_contribution"` // added after every period

	ExtraPayments   []ExtraPayment `json:"extra_payments,omitempty"`
	LumpSums        []LumpSum      `json:"lump_sums,omitempty"`
	RateForecasts   []RateForecast `json:"rate_forecasts,omitempty"`
	GrowthForecasts []RateForecast `json:"growth_forecasts,omitempty"`

	Years int `json:"years"`
	// ContinueAfterPayoff keeps simulating value and rent with a zero balance until Years.
	ContinueAfterPayoff bool `json:"continue_after_payoff,omitempty"`

	Tax *TaxProfile `json:"tax,omitempty"`
}

func (in ProjectionInput) startDate() time.Time {
	if in.Loan != nil && !in.Loan.StartDate.IsZero() {
		return in.Loan.StartDate
	}
	return in.StartDate
}

func (in ProjectionInput) frequency() Frequency {
	if in.Loan != nil {
		return in.Loan.Frequency
	}
	return Monthly
}

func (in ProjectionInput) horizonPeriods() int {
	years := in.Years
	if in.Loan != nil {
		term := in.Loan.TermYears
		if years == 0 || (!in.ContinueAfterPayoff && years > term) {
			years = term
		}
	}
	n := years * in.frequency().PerYear()
	if n > MaxPeriods {
		n = MaxPeriods
	}
	return n
}

// extraFor sums recurring extras active on due and lump sums dated within [from, due).
func (in ProjectionInput) extraFor(freq Frequency, from, due time.Time) Cents {
	var total Cents
	for _, e := range in.ExtraPayments {
		if e.activeOn(due) {
			total += e.perPeriod(freq)
		}
	}
	for _, l := range in.LumpSums {
		if !l.Date.Before(from) && l.Date.Before(due) {
			total += l.Amount
		}
	}
	return total
}

func (in ProjectionInput) hasAccelerators() bool {
	return len(in.ExtraPayments) > 0 || len(in.LumpSums) > 0 || in.OffsetBalance > 0 || in.OffsetContribution > 0
}

// RepaymentProjection is one simulated period. Equity + Balance == PropertyValue.
type RepaymentProjection struct {
	Period        int         `json:"period"`
	Year          int         `json:"year"`
	Month         int         `json:"month"`
	Date          time.Time   `json:"date"`
	Rate          BasisPoints `json:"rate_bps"`
	Balance       Cents       `json:"balance"`
	Principal     Cents       `json:"principal"`
	Interest      Cents       `json:"interest"`
	Payment       Cents       `json:"payment"`
	Extra         Cents       `json:"extra"`
	Offset        Cents       `json:"offset"`
	PropertyValue Cents       `json:"property_value"`
	Equity        Cents       `json:"equity"`
	LVR           Percent     `json:"lvr"`
	Rent          Cents       `json:"rent"`
	Expenses      Cents       `json:"expenses"`
	NetCashflow   Cents       `json:"net_cashflow"`
}

// YearSummary aggregates the periods falling in one calendar year.
type YearSummary struct {
	Year           int             `json:"year"`
	Periods        int             `json:"periods"`
	OpeningBalance Cents           `json:"opening_balance"`
	ClosingBalance Cents           `json:"closing_balance"`
	Interest       Cents           `json:"interest"`
	Principal      Cents           `json:"principal"`
	Extra          Cents           `json:"extra"`
	Repayments     Cents           `json:"repayments"`
	Rent           Cents           `json:"rent"`
	Expenses       Cents           `json:"expenses"`
	NetCashflow    Cents           `json:"net_cashflow"`
	PropertyValue  Cents           `json:"property_value"`
	Equity         Cents           `json:"equity"`
	LVR            Percent         `json:"lvr"`
	Tax            *TaxCalculation `json:"tax,omitempty"`
}

// Savings compares a loan with its extra payments, lump sums and offset against the same
// loan without them, both over the full term.
type Savings struct {
	BaselinePeriods  int   `json:"baseline_periods"`
	Periods          int   `json:"periods"`
	PeriodsSaved     int   `json:"periods_saved"`
	BaselineInterest Cents `json:"baseline_interest"`
	Interest         Cents `json:"interest"`
	InterestSaved    Cents `json:"interest_saved"`
}

type Projection struct {
	InitialPayment Cents                 `json:"initial_payment"`
	Rows           []RepaymentProjection `json:"rows"`
	Yearly         []YearSummary         `json:"yearly"`
	TotalPaid      Cents                 `json:"total_paid"`
	TotalInterest  Cents                 `json:"total_interest"`
	TotalPrincipal Cents                 `json:"total_principal"`
	PaidOff        bool                  `json:"paid_off"`
	PayoffPeriod   int                   `json:"payoff_period,omitempty"`
	PayoffDate     *time.Time            `json:"payoff_date,omitempty"`
	Savings        *Savings              `json:"savings,omitempty"`
}

// Project validates the input and simulates it period by period.
func Project(in ProjectionInput) (Projection, error) {
	if err := ValidateProjection(in); err != nil {
		return Projection{}, err
	}
	p := simulate(in)
	if in.Loan != nil && in.hasAccelerators() {
		p.Savings = savings(in)
	}
	return p, nil
}

func savings(in ProjectionInput) *Savings {
	full := in
	full.Years = 0
	full.ContinueAfterPayoff = false
	with := simulate(full)

	base := full
	base.ExtraPayments = nil
	base.LumpSums = nil
	base.OffsetBalance = 0
	base.OffsetContribution = 0
	without := simulate(base)

	return &Savings{
		BaselinePeriods:  len(without.Rows),
		Periods:          len(with.Rows),
		PeriodsSaved:     len(without.Rows) - len(with.Rows),
		BaselineInterest: without.TotalInterest,
		Interest:         with.TotalInterest,
		InterestSaved:    without.TotalInterest - with.TotalInterest,
	}
}

// simulate assumes a validated input.
func simulate(in ProjectionInput) Projection {
	freq := in.frequency()
	ppy := freq.PerYear()
	start := in.startDate()
	horizon := in.horizonPeriods()

	var (
		balance     Cents
		payment     Cents
		paymentRate BasisPoints
		baseRate    BasisPoints
		termPeriods int
		ioPeriods   int
		region      Region
	)
	if loan := in.Loan; loan != nil {
		balance = loan.Principal
		baseRate = loan.AnnualRate
		paymentRate = loan.AnnualRate
		termPeriods = loan.Periods()
		ioPeriods = loan.interestOnlyPeriods()
		region = loan.Region
		rate := PeriodRate(loan.AnnualRate, freq, region)
		if ioPeriods > 0 {
			payment = applyRate(balance, rate)
		} else {
			payment = annuityPayment(balance, rate, termPeriods)
		}
	}
	rates := newRateSchedule(baseRate, in.RateForecasts)
	growth := newRateSchedule(in.GrowthRate, in.GrowthForecasts)

	out := Projection{
		InitialPayment: payment,
		Rows:           make([]RepaymentProjection, 0, horizon),
	}
	opening := balance
	value := in.PropertyValue
	rent, expenses := in.RentalIncome, in.Expenses
	offset := in.OffsetBalance
	prevYear := start.Year()
	periodStart := start

	for i := 1; i <= horizon; i++ {
		due := dueDate(start, freq, i)
		year := due.Year()
		for y := prevYear + 1; y <= year; y++ {
			value = grow(value, growth.at(y))
			rent = grow(rent, in.RentGrowth)
			expenses = grow(expenses, in.ExpenseGrowth)
		}
		prevYear = year

		row := RepaymentProjection{Period: i, Year: year, Month: int(due.Month()), Date: due}
		if balance > 0 {
			annual := rates.at(year)
			periodRate := PeriodRate(annual, freq, region)
			interestOnly := i <= ioPeriods
			structure := PrincipalAndInterest
			if interestOnly {
				structure = InterestOnly
			} else if (ioPeriods > 0 && i == ioPeriods+1) || annual != paymentRate {
				payment = annuityPayment(balance, periodRate, termPeriods-i+1)
			}
			paymentRate = annual

			extra := in.extraFor(freq, periodStart, due)
			res := AmortizePeriod(PeriodInput{
				Balance:   balance,
				Offset:    offset,
				Rate:      periodRate,
				Structure: structure,
				Payment:   payment,
				Extra:     extra,
				Final:     i >= termPeriods,
			})
			balance = res.Balance

			row.Rate = annual
			row.Interest = res.Interest
			row.Principal = res.Principal
			row.Payment = res.Payment
			row.Extra = minCents(extra, res.Principal)
			row.Offset = offset
			offset += in.OffsetContribution
		}

		row.Balance = balance
		row.PropertyValue = value
		row.Equity = value - balance
		if balance > 0 {
			row.LVR = ratio(balance, value)
		}
		row.Rent = periodShare(rent, in.VacancyRate, ppy)
		row.Expenses = periodShare(expenses, 0, ppy)
		row.NetCashflow = row.Rent - row.Expenses - row.Payment
		out.Rows = append(out.Rows, row)

		out.TotalPaid += row.Payment
		out.TotalInterest += row.Interest
		out.TotalPrincipal += row.Principal

		if in.Loan != nil && balance == 0 && !out.PaidOff {
			out.PaidOff = true
			out.PayoffPeriod = i
			out.PayoffDate = &row.Date
			if !in.ContinueAfterPayoff {
				break
			}
		}
		periodStart = due
	}

	out.Yearly = summarizeYears(out.Rows, opening, in.Tax)
	return out
}

// periodShare is one period's slice of an annual amount net of vacancy.
func periodShare(annual Cents, vacancy BasisPoints, perYear int) Cents {
	if annual == 0 || perYear == 0 {
		return 0
	}
	occupied := decimal.NewFromInt(1).Sub(vacancy.Fraction())
	return roundCents(annual.decimal().Mul(occupied).Div(decimal.NewFromInt(int64(perYear))))
}

func summarizeYears(rows []RepaymentProjection, opening Cents, tax *TaxProfile) []YearSummary {
	var out []YearSummary
	prev := opening
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].Year != r.Year {
			out = append(out, YearSummary{Year: r.Year, OpeningBalance: prev})
		}
		s := &out[len(out)-1]
		s.Periods++
		s.Interest += r.Interest
		s.Principal += r.Principal
		s.Extra += r.Extra
		s.Repayments += r.Payment
		s.Rent += r.Rent
		s.Expenses += r.Expenses
		s.NetCashflow += r.NetCashflow
		s.ClosingBalance = r.Balance
		s.PropertyValue = r.PropertyValue
		s.Equity = r.Equity
		s.LVR = r.LVR
		prev = r.Balance
	}
	if tax != nil {
		for i := range out {
			s := &out[i]
			net := s.Rent - s.Expenses - s.Interest - tax.Depreciation
			calc := CalculateTax(TaxInput{
				RentalIncome: s.Rent,
				Expenses:     s.Expenses,
				Interest:     s.Interest,
				Depreciation: tax.Depreciation,
				MarginalRate: tax.rateFor(net),
			})
			s.Tax = &calc
		}
	}
	return out
}

// dueDate is the payment date of period i (1-based); monthly dates clamp to month end.
func dueDate(start time.Time, freq Frequency, i int) time.Time {
	switch freq {
	case Weekly:
		return start.AddDate(0, 0, 7*i)
	case Fortnightly:
		return start.AddDate(0, 0, 14*i)
	case Annually:
		return addMonths(start, 12*i)
	}
	return addMonths(start, i)
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
