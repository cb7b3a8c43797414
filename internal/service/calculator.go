package service

import (
	"context"
	"log/slog"
	"time"

	"propvest/internal/engine"
	"propvest/internal/metrics"
)

type CalculatorService struct {
	cache   resultCache
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewCalculatorService(cache Cache, ttl time.Duration, m *metrics.Metrics, log *slog.Logger) *CalculatorService {
	log = log.With("component", "calculator")
	return &CalculatorService{
		cache:   resultCache{cache: cache, ttl: ttl, metrics: m, log: log},
		metrics: m,
		log:     log,
	}
}

func (s *CalculatorService) Repayment(ctx context.Context, m engine.MortgageInput) (engine.Cents, error) {
	started := time.Now()
	payment, err := engine.CalculateRepayment(m)
	s.metrics.ObserveCalculation("repayment", started, err)
	return payment, err
}

func (s *CalculatorService) Schedule(ctx context.Context, m engine.MortgageInput, opts engine.ScheduleOptions) (engine.AmortizationSchedule, error) {
	started := time.Now()
	schedule, err := engine.GenerateSchedule(m, opts)
	s.metrics.ObserveCalculation("schedule", started, err)
	return schedule, err
}

// Projection validates before consulting the cache so invalid input is never cached.
func (s *CalculatorService) Projection(ctx context.Context, in engine.ProjectionInput) (engine.Projection, error) {
	if err := engine.ValidateProjection(in); err != nil {
		s.metrics.ObserveCalculation("projection", time.Now(), err)
		return engine.Projection{}, err
	}
	key, err := cacheKey("projection", in)
	if err != nil {
		return engine.Projection{}, err
	}
	return cached(ctx, s.cache, key, func() (engine.Projection, error) {
		started := time.Now()
		p, err := engine.Project(in)
		s.metrics.ObserveCalculation("projection", started, err)
		if err == nil {
			s.log.Debug("projection computed", "periods", len(p.Rows), "elapsed", time.Since(started))
		}
		return p, err
	})
}

func (s *CalculatorService) Compare(ctx context.Context, a, b engine.Scenario) (engine.ScenarioComparison, error) {
	started := time.Now()
	out, err := engine.CompareScenarios(a, b)
	s.metrics.ObserveCalculation("compare", started, err)
	return out, err
}

func (s *CalculatorService) Tax(ctx context.Context, in engine.TaxInput) (engine.TaxCalculation, error) {
	started := time.Now()
	if err := engine.ValidateTax(in); err != nil {
		s.metrics.ObserveCalculation("tax", started, err)
		return engine.TaxCalculation{}, err
	}
	out := engine.CalculateTax(in)
	s.metrics.ObserveCalculation("tax", started, nil)
	return out, nil
}

// PurchaseReport combines the LVR position with the upfront costs of buying.
type PurchaseReport struct {
	LVR      engine.LVRCalculation `json:"lvr"`
	Costs    engine.PurchaseCosts  `json:"costs"`
	Currency string                `json:"currency"`
	Display  map[string]string     `json:"display"`
}

// Purchase rejects a loan above the property value; there is no meaningful LMI band for it.
func (s *CalculatorService) Purchase(ctx context.Context, loan, value engine.Cents, region engine.Region) (PurchaseReport, error) {
	started := time.Now()
	if err := engine.ValidateLVR(loan, value); err != nil {
		s.metrics.ObserveCalculation("lvr", started, err)
		return PurchaseReport{}, err
	}
	costs := engine.CalculatePurchaseCosts(value, loan, region)
	s.metrics.ObserveCalculation("lvr", started, nil)

	currency := engine.Params(region).Currency
	return PurchaseReport{
		LVR:      costs.LVR,
		Costs:    costs,
		Currency: currency,
		Display: map[string]string{
			"deposit":    costs.Deposit.Format(currency),
			"stamp_duty": costs.StampDuty.Format(currency),
			"lmi":        costs.LMI.Format(currency),
			"total":      costs.Total.Format(currency),
			"equity":     costs.LVR.Equity.Format(currency),
		},
	}, nil
}

func (s *CalculatorService) Growth(ctx context.Context, start engine.Cents, rate engine.BasisPoints, startYear, years int, forecasts []engine.RateForecast) (engine.GrowthForecast, error) {
	started := time.Now()
	if err := engine.ValidateGrowth(start, rate, startYear, years, forecasts); err != nil {
		s.metrics.ObserveCalculation("growth", started, err)
		return engine.GrowthForecast{}, err
	}
	out := engine.ForecastGrowth(start, rate, startYear, years, forecasts)
	s.metrics.ObserveCalculation("growth", started, nil)
	return out, nil
}
