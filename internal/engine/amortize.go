package engine

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MortgageInput holds one loan's static parameters. Immutable for the duration of a call.
type MortgageInput struct {
	Principal  Cents       `json:"principal"`
	AnnualRate BasisPoints `json:"annual_rate_bps"`
	TermYears  int         `json:"term_years"`
	Structure  Structure   `json:"structure"`
	Frequency  Frequency   `json:"frequency"`
	Region     Region      `json:"region"`
	// InterestOnlyYears limits an InterestOnly structure to its first years, after which the
	// loan reverts to principal and interest. Zero keeps it interest-only for the whole term.
	InterestOnlyYears int       `json:"interest_only_years,omitempty"`
	StartDate         time.Time `json:"start_date"`
}

// Periods is the number of scheduled payments over the full term.
func (m MortgageInput) Periods() int {
	return m.TermYears * m.Frequency.PerYear()
}

// interestOnlyPeriods is how many leading periods are interest-only.
func (m MortgageInput) interestOnlyPeriods() int {
	if m.Structure != InterestOnly {
		return 0
	}
	if m.InterestOnlyYears <= 0 || m.InterestOnlyYears >= m.TermYears {
		return m.Periods()
	}
	return m.InterestOnlyYears * m.Frequency.PerYear()
}

// CalculateRepayment returns the periodic payment at inception: the annuity payment for
// principal and interest, or one period's interest for an interest-only loan.
func CalculateRepayment(m MortgageInput) (Cents, error) {
	if err := ValidateMortgage(m); err != nil {
		return 0, err
	}
	rate := PeriodRate(m.AnnualRate, m.Frequency, m.Region)
	if m.Structure == InterestOnly {
		return applyRate(m.Principal, rate), nil
	}
	return annuityPayment(m.Principal, rate, m.Periods()), nil
}

// annuityPayment is P·r·(1+r)^n / ((1+r)^n − 1), or P/n when r is zero.
func annuityPayment(balance Cents, rate decimal.Decimal, n int) Cents {
	if balance <= 0 {
		return 0
	}
	if n <= 0 {
		return balance
	}
	if rate.IsZero() {
		return roundCents(balance.decimal().Div(decimal.NewFromInt(int64(n))))
	}
	r := rate.InexactFloat64()
	factor := math.Pow(1+r, float64(n))
	if factor == 1 || math.IsInf(factor, 0) || math.IsNaN(factor) {
		return roundCents(balance.decimal().Div(decimal.NewFromInt(int64(n))))
	}
	return roundCents(balance.decimal().Mul(floatToDecimal(r * factor / (factor - 1))))
}

// PeriodInput is the state needed to amortize one payment period.
type PeriodInput struct {
	Balance   Cents
	Offset    Cents
	Rate      decimal.Decimal
	Structure Structure
	Payment   Cents // scheduled payment, ignored for interest-only periods
	Extra     Cents // extra repayments and lump sums applied this period
	Final     bool  // last scheduled period: repay whatever remains
}

// PeriodResult satisfies Payment == Principal + Interest exactly.
type PeriodResult struct {
	Interest  Cents
	Principal Cents
	Payment   Cents
	Balance   Cents
}

// AmortizePeriod splits one period's payment into interest and principal. Interest accrues on
// the balance net of the offset, rounded once. Principal never exceeds the balance.
func AmortizePeriod(in PeriodInput) PeriodResult {
	if in.Balance <= 0 {
		return PeriodResult{}
	}
	interest := applyRate(maxCents(0, in.Balance-in.Offset), in.Rate)

	var principal Cents
	switch {
	case in.Final:
		principal = in.Balance
	case in.Structure == InterestOnly:
		principal = maxCents(0, in.Extra)
	default:
		principal = maxCents(0, in.Payment-interest+maxCents(0, in.Extra))
	}
	principal = minCents(principal, in.Balance)

	return PeriodResult{
		Interest:  interest,
		Principal: principal,
		Payment:   interest + principal,
		Balance:   in.Balance - principal,
	}
}
