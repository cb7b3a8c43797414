package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"propvest/internal/engine"
)

// Request bodies carry money in cents, rates as decimal percentages (6.5) and dates as YYYY-MM-DD.

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var errInvalidJSON = errors.New("invalid JSON")

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		return errInvalidJSON
	}
	return nil
}

type LoanRequest struct {
	Principal         int64   `json:"principal"`
	AnnualRate        float64 `json:"annual_rate"`
	TermYears         int     `json:"term_years"`
	Structure         string  `json:"structure"`
	Frequency         string  `json:"frequency"`
	Region            string  `json:"region"`
	InterestOnlyYears int     `json:"interest_only_years"`
	StartDate         string  `json:"start_date"`
}

type ExtraPaymentRequest struct {
	Amount    int64  `json:"amount"`
	Frequency string `json:"frequency"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type LumpSumRequest struct {
	Amount int64  `json:"amount"`
	Date   string `json:"date"`
}

type ForecastRequest struct {
	Year int     `json:"year"`
	Rate float64 `json:"rate"`
}

type ScheduleRequest struct {
	Loan          LoanRequest           `json:"loan"`
	ExtraPayments []ExtraPaymentRequest `json:"extra_payments"`
	LumpSums      []LumpSumRequest      `json:"lump_sums"`
	RateForecasts []ForecastRequest     `json:"rate_forecasts"`
	OffsetBalance int64                 `json:"offset_balance"`
}

type TaxProfileRequest struct {
	MarginalRate float64 `json:"marginal_rate"`
	OtherIncome  int64   `json:"other_income"`
	Depreciation int64   `json:"depreciation"`
}

type ProjectionRequest struct {
	Loan      *LoanRequest `json:"loan"`
	StartDate string       `json:"start_date"`

	PropertyValue int64   `json:"property_value"`
	GrowthRate    float64 `json:"growth_rate"`

	RentalIncome  int64   `json:"rental_income"`
	WeeklyRent    int64   `json:"weekly_rent"`
	RentGrowth    float64 `json:"rent_growth"`
	VacancyRate   float64 `json:"vacancy_rate"`
	Expenses      int64   `json:"expenses"`
	ExpenseGrowth float64 `json:"expense_growth"`

	OffsetBalance      int64 `json:"offset_balance"`
	OffsetContribution int64 `json:"offset_contribution"`

	ExtraPayments   []ExtraPaymentRequest `json:"extra_payments"`
	LumpSums        []LumpSumRequest      `json:"lump_sums"`
	RateForecasts   []ForecastRequest     `json:"rate_forecasts"`
	GrowthForecasts []ForecastRequest     `json:"growth_forecasts"`

	Years               int  `json:"years"`
	ContinueAfterPayoff bool `json:"continue_after_payoff"`

	Tax *TaxProfileRequest `json:"tax"`
}

type ScenarioRequest struct {
	Name string `json:"name"`
	ScheduleRequest
}

type CompareRequest struct {
	A ScenarioRequest `json:"a"`
	B ScenarioRequest `json:"b"`
}

type TaxRequest struct {
	RentalIncome int64   `json:"rental_income"`
	Expenses     int64   `json:"expenses"`
	Interest     int64   `json:"interest"`
	Depreciation int64   `json:"depreciation"`
	MarginalRate float64 `json:"marginal_rate"`
	OtherIncome  int64   `json:"other_income"`
}

type LVRRequest struct {
	PropertyValue int64    `json:"property_value"`
	LoanAmount    int64    `json:"loan_amount"`
	Region        string   `json:"region"`
	TargetLVR     *float64 `json:"target_lvr"`
}

type GrowthRequest struct {
	StartValue int64             `json:"start_value"`
	GrowthRate float64           `json:"growth_rate"`
	StartYear  int               `json:"start_year"`
	Years      int               `json:"years"`
	Forecasts  []ForecastRequest `json:"forecasts"`
}

func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: field + " must be YYYY-MM-DD"}
	}
	return t, nil
}

func parseDatePtr(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := parseDate(field, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseRegion(field, v string, def engine.Region) (engine.Region, error) {
	if v == "" {
		return def, nil
	}
	r, err := engine.ParseRegion(v)
	if err != nil {
		return "", &ValidationError{Field: field, Message: err.Error()}
	}
	return r, nil
}

func (l LoanRequest) toEngine(prefix string, def engine.Region) (engine.MortgageInput, error) {
	structure, err := engine.ParseStructure(l.Structure)
	if err != nil {
		return engine.MortgageInput{}, &ValidationError{Field: prefix + "structure", Message: err.Error()}
	}
	freq, err := engine.ParseFrequency(l.Frequency)
	if err != nil {
		return engine.MortgageInput{}, &ValidationError{Field: prefix + "frequency", Message: err.Error()}
	}
	region, err := parseRegion(prefix+"region", l.Region, def)
	if err != nil {
		return engine.MortgageInput{}, err
	}
	start, err := parseDate(prefix+"start_date", l.StartDate)
	if err != nil {
		return engine.MortgageInput{}, err
	}
	return engine.MortgageInput{
		Principal:         engine.Cents(l.Principal),
		AnnualRate:        engine.PercentToBps(l.AnnualRate),
		TermYears:         l.TermYears,
		Structure:         structure,
		Frequency:         freq,
		Region:            region,
		InterestOnlyYears: l.InterestOnlyYears,
		StartDate:         start,
	}, nil
}

func extraPayments(prefix string, in []ExtraPaymentRequest) ([]engine.ExtraPayment, error) {
	out := make([]engine.ExtraPayment, 0, len(in))
	for i, x := range in {
		field := fmt.Sprintf("%sextra_payments[%d].", prefix, i)
		freq, err := engine.ParseFrequency(x.Frequency)
		if err != nil {
			return nil, &ValidationError{Field: field + "frequency", Message: err.Error()}
		}
		start, err := parseDate(field+"start_date", x.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseDatePtr(field+"end_date", x.EndDate)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.ExtraPayment{Amount: engine.Cents(x.Amount), Frequency: freq, StartDate: start, EndDate: end})
	}
	return out, nil
}

func lumpSums(prefix string, in []LumpSumRequest) ([]engine.LumpSum, error) {
	out := make([]engine.LumpSum, 0, len(in))
	for i, s := range in {
		d, err := parseDate(fmt.Sprintf("%slump_sums[%d].date", prefix, i), s.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.LumpSum{Amount: engine.Cents(s.Amount), Date: d})
	}
	return out, nil
}

func forecasts(in []ForecastRequest) []engine.RateForecast {
	if len(in) == 0 {
		return nil
	}
	out := make([]engine.RateForecast, len(in))
	for i, f := range in {
		out[i] = engine.RateForecast{Year: f.Year, Rate: engine.PercentToBps(f.Rate)}
	}
	return out
}

func (s ScheduleRequest) toEngine(prefix string, def engine.Region) (engine.MortgageInput, engine.ScheduleOptions, error) {
	loan, err := s.Loan.toEngine(prefix+"loan.", def)
	if err != nil {
		return engine.MortgageInput{}, engine.ScheduleOptions{}, err
	}
	extras, err := extraPayments(prefix, s.ExtraPayments)
	if err != nil {
		return engine.MortgageInput{}, engine.ScheduleOptions{}, err
	}
	lumps, err := lumpSums(prefix, s.LumpSums)
	if err != nil {
		return engine.MortgageInput{}, engine.ScheduleOptions{}, err
	}
	return loan, engine.ScheduleOptions{
		ExtraPayments: extras,
		LumpSums:      lumps,
		RateForecasts: forecasts(s.RateForecasts),
		OffsetBalance: engine.Cents(s.OffsetBalance),
	}, nil
}

func (p ProjectionRequest) toEngine(def engine.Region) (engine.ProjectionInput, error) {
	in := engine.ProjectionInput{
		PropertyValue:       engine.Cents(p.PropertyValue),
		GrowthRate:          engine.PercentToBps(p.GrowthRate),
		RentalIncome:        engine.Cents(p.RentalIncome),
		RentGrowth:          engine.PercentToBps(p.RentGrowth),
		VacancyRate:         engine.PercentToBps(p.VacancyRate),
		Expenses:            engine.Cents(p.Expenses),
		ExpenseGrowth:       engine.PercentToBps(p.ExpenseGrowth),
		OffsetBalance:       engine.Cents(p.OffsetBalance),
		OffsetContribution:  engine.Cents(p.OffsetContribution),
		RateForecasts:       forecasts(p.RateForecasts),
		GrowthForecasts:     forecasts(p.GrowthForecasts),
		Years:               p.Years,
		ContinueAfterPayoff: p.ContinueAfterPayoff,
	}
	if p.RentalIncome == 0 && p.WeeklyRent > 0 {
		in.RentalIncome = engine.Cents(p.WeeklyRent * int64(engine.Weekly.PerYear()))
	}

	var err error
	if in.StartDate, err = parseDate("start_date", p.StartDate); err != nil {
		return in, err
	}
	if p.Loan != nil {
		loan, err := p.Loan.toEngine("loan.", def)
		if err != nil {
			return in, err
		}
		in.Loan = &loan
	}
	if in.ExtraPayments, err = extraPayments("", p.ExtraPayments); err != nil {
		return in, err
	}
	if in.LumpSums, err = lumpSums("", p.LumpSums); err != nil {
		return in, err
	}
	if p.Tax != nil {
		in.Tax = &engine.TaxProfile{
			MarginalRate: engine.PercentToBps(p.Tax.MarginalRate),
			OtherIncome:  engine.Cents(p.Tax.OtherIncome),
			Depreciation: engine.Cents(p.Tax.Depreciation),
		}
	}
	return in, nil
}

func (t TaxRequest) toEngine() engine.TaxInput {
	rate := engine.PercentToBps(t.MarginalRate)
	if rate == 0 {
		rate = engine.MarginalRate(engine.Cents(t.OtherIncome), engine.ResidentTaxBrackets)
	}
	return engine.TaxInput{
		RentalIncome: engine.Cents(t.RentalIncome),
		Expenses:     engine.Cents(t.Expenses),
		Interest:     engine.Cents(t.Interest),
		Depreciation: engine.Cents(t.Depreciation),
		MarginalRate: rate,
	}
}

// yearsParam reads ?years=, defaulting to def.
func yearsParam(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("years")
	if v == "" {
		return def, nil
	}
	years, err := strconv.Atoi(v)
	if err != nil || years < 1 || years > engine.MaxProjectionYears {
		return 0, &ValidationError{Field: "years", Message: fmt.Sprintf("years must be an integer between 1 and %d", engine.MaxProjectionYears)}
	}
	return years, nil
}
