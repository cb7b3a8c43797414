package engine

import "time"

// ScheduleOptions are the optional inputs that alter a loan's amortization.
type ScheduleOptions struct {
	ExtraPayments []ExtraPayment `json:"extra_payments,omitempty"`
	LumpSums      []LumpSum      `json:"lump_sums,omitempty"`
	RateForecasts []RateForecast `json:"rate_forecasts,omitempty"`
	OffsetBalance Cents          `json:"offset_balance,omitempty"`
}

type AmortizationEntry struct {
	Period              int         `json:"period"`
	Date                time.Time   `json:"date"`
	Rate                BasisPoints `json:"rate_bps"`
	Payment             Cents       `json:"payment"`
	Principal           Cents       `json:"principal"`
	Interest            Cents       `json:"interest"`
	Extra               Cents       `json:"extra"`
	Balance             Cents       `json:"balance"`
	CumulativePrincipal Cents       `json:"cumulative_principal"`
	CumulativeInterest  Cents       `json:"cumulative_interest"`
}

// AmortizationSchedule is a loan's full repayment history until payoff. TotalPaid equals
// TotalPrincipal + TotalInterest.
type AmortizationSchedule struct {
	Payment        Cents               `json:"payment"`
	Entries        []AmortizationEntry `json:"entries"`
	Periods        int                 `json:"periods"`
	TotalPaid      Cents               `json:"total_paid"`
	TotalInterest  Cents               `json:"total_interest"`
	TotalPrincipal Cents               `json:"total_principal"`
	PayoffDate     time.Time           `json:"payoff_date"`
}

// GenerateSchedule amortizes m over its full term.
func GenerateSchedule(m MortgageInput, opts ScheduleOptions) (AmortizationSchedule, error) {
	in := ProjectionInput{
		Loan:          &m,
		ExtraPayments: opts.ExtraPayments,
		LumpSums:      opts.LumpSums,
		RateForecasts: opts.RateForecasts,
		OffsetBalance: opts.OffsetBalance,
	}
	if err := ValidateProjection(in); err != nil {
		return AmortizationSchedule{}, err
	}
	p := simulate(in)

	out := AmortizationSchedule{
		Payment: p.InitialPayment,
		Entries: make([]AmortizationEntry, 0, len(p.Rows)),
		Periods: len(p.Rows),
	}
	var cumPrincipal, cumInterest Cents
	for _, r := range p.Rows {
		cumPrincipal += r.Principal
		cumInterest += r.Interest
		out.Entries = append(out.Entries, AmortizationEntry{
			Period:              r.Period,
			Date:                r.Date,
			Rate:                r.Rate,
			Payment:             r.Payment,
			Principal:           r.Principal,
			Interest:            r.Interest,
			Extra:               r.Extra,
			Balance:             r.Balance,
			CumulativePrincipal: cumPrincipal,
			CumulativeInterest:  cumInterest,
		})
	}
	out.TotalPaid = p.TotalPaid
	out.TotalInterest = p.TotalInterest
	out.TotalPrincipal = p.TotalPrincipal
	if n := len(out.Entries); n > 0 {
		out.PayoffDate = out.Entries[n-1].Date
	}
	return out, nil
}
