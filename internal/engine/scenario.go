package engine

import (
	"fmt"
)

type Scenario struct {
	Name    string          `json:"name"`
	Loan    MortgageInput   `json:"loan"`
	Options ScheduleOptions `json:"options"`
}

type ScenarioResult struct {
	Name     string               `json:"name"`
	Payment  Cents                `json:"payment"`
	Schedule AmortizationSchedule `json:"schedule"`
}

// ScenarioComparison reports Difference = cost(A) − cost(B). A positive difference means B
// is cheaper. DifferencePercent is relative to the more expensive scenario.
type ScenarioComparison struct {
	A                 ScenarioResult `json:"a"`
	B                 ScenarioResult `json:"b"`
	Difference        Cents          `json:"difference"`
	DifferencePercent Percent        `json:"difference_percent"`
	Cheaper           string         `json:"cheaper,omitempty"`
	Recommendation    string         `json:"recommendation"`
}

// CompareScenarios amortizes both loans in full and compares their total cost.
func CompareScenarios(a, b Scenario) (ScenarioComparison, error) {
	a.Name = scenarioName(a.Name, "Scenario A")
	b.Name = scenarioName(b.Name, "Scenario B")

	v := &ValidationError{}
	for _, s := range []struct {
		field string
		sc    Scenario
	}{{"a", a}, {"b", b}} {
		in := ProjectionInput{
			Loan:          &s.sc.Loan,
			ExtraPayments: s.sc.Options.ExtraPayments,
			LumpSums:      s.sc.Options.LumpSums,
			RateForecasts: s.sc.Options.RateForecasts,
			OffsetBalance: s.sc.Options.OffsetBalance,
		}
		validateProjection(v, s.field+".", in)
	}
	if err := v.orNil(); err != nil {
		return ScenarioComparison{}, err
	}

	sa, err := GenerateSchedule(a.Loan, a.Options)
	if err != nil {
		return ScenarioComparison{}, err
	}
	sb, err := GenerateSchedule(b.Loan, b.Options)
	if err != nil {
		return ScenarioComparison{}, err
	}

	out := ScenarioComparison{
		A:          ScenarioResult{Name: a.Name, Payment: sa.Payment, Schedule: sa},
		B:          ScenarioResult{Name: b.Name, Payment: sb.Payment, Schedule: sb},
		Difference: sa.TotalPaid - sb.TotalPaid,
	}
	out.DifferencePercent = ratio(out.Difference, maxCents(sa.TotalPaid, sb.TotalPaid))

	currency := Params(a.Loan.Region).Currency
	switch {
	case out.Difference == 0:
		out.Recommendation = fmt.Sprintf("%s and %s have equal cost of %s.",
			a.Name, b.Name, sa.TotalPaid.Format(currency))
	case out.Difference > 0:
		out.Cheaper = b.Name
		out.Recommendation = recommend(b.Name, a.Name, out.Difference, out.DifferencePercent, currency)
	default:
		out.Cheaper = a.Name
		out.Recommendation = recommend(a.Name, b.Name, -out.Difference, -out.DifferencePercent, currency)
	}
	return out, nil
}

func recommend(cheaper, dearer string, saving Cents, pct Percent, currency string) string {
	return fmt.Sprintf("%s is cheaper than %s by %s (%.2f%%) over the life of the loan.",
		cheaper, dearer, saving.Format(currency), float64(pct))
}

func scenarioName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
