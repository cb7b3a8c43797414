package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"propvest/internal/engine"
	"propvest/internal/metrics"
)

func TestPropertyInputs_ConvertsStoredUnits(t *testing.T) {
	repo := samplePortfolio()
	inputs, err := PropertyInputs(repo.portfolios["p1"], repo.properties["p1"])
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	rented := inputs[0].Projection
	require.NotNil(t, rented.Loan)
	assert.Equal(t, engine.BasisPoints(620), rented.Loan.AnnualRate)
	assert.Equal(t, engine.Monthly, rented.Loan.Frequency)
	assert.Equal(t, engine.RegionAU, rented.Loan.Region)
	assert.Equal(t, engine.Cents(60_000_000), rented.PropertyValue, "purchase price when no valuation")
	assert.Equal(t, engine.Cents(3_120_000), rented.RentalIncome)
	assert.Equal(t, engine.BasisPoints(200), rented.VacancyRate)
	assert.Equal(t, engine.Cents(600_000), rented.Expenses)
	assert.Equal(t, engine.BasisPoints(250), rented.ExpenseGrowth)
	assert.Equal(t, []engine.RateForecast{{Year: 2028, Rate: 550}}, rented.RateForecasts)
	assert.Equal(t, &engine.TaxProfile{MarginalRate: 3700, Depreciation: 800_000}, rented.Tax)

	home := inputs[1].Projection
	assert.Nil(t, home.Loan)
	assert.Equal(t, engine.Cents(45_000_000), home.PropertyValue)
	assert.Zero(t, home.RentalIncome, "owner occupied earns no rent")
	assert.Nil(t, home.Tax, "owner occupied has no tax overlay")
}

func TestPropertyInputs_RejectsUnknownFrequency(t *testing.T) {
	repo := samplePortfolio()
	props := repo.properties["p1"]
	props[0].Loan.Frequency = "hourly"

	_, err := PropertyInputs(repo.portfolios["p1"], props)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property h1")
}

func TestCalculator_ProjectionIsCached(t *testing.T) {
	store := newMemStore()
	m := metrics.New()
	calc := NewCalculatorService(store, time.Minute, m, discardLogger())

	in := engine.ProjectionInput{
		Loan: &engine.MortgageInput{
			Principal: 30_000_000, AnnualRate: 600, TermYears: 25,
			Structure: engine.PrincipalAndInterest, Frequency: engine.Monthly,
			Region: engine.RegionAU, StartDate: purchased,
		},
		PropertyValue: 40_000_000,
		Years:         5,
	}

	first, err := calc.Projection(context.Background(), in)
	require.NoError(t, err)
	second, err := calc.Projection(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, store.writes)
	assert.Equal(t, first.TotalInterest, second.TotalInterest)
	assert.Len(t, second.Rows, 60)
}

func TestCalculator_InvalidInputIsNotCached(t *testing.T) {
	store := newMemStore()
	calc := NewCalculatorService(store, time.Minute, nil, discardLogger())

	_, err := calc.Projection(context.Background(), engine.ProjectionInput{Years: 0})
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, store.gets)
	assert.Zero(t, store.writes)
}

func TestCached_StoreFailureDoesNotFail(t *testing.T) {
	store := newMemStore()
	store.fail = true
	c := resultCache{cache: store, ttl: time.Minute, log: discardLogger()}

	calls := 0
	for i := 0; i < 2; i++ {
		v, err := cached(context.Background(), c, "k", func() (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 2, calls)
}

func TestCacheKey_StableForEqualInput(t *testing.T) {
	a, err := cacheKey("x", map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)
	b, err := cacheKey("x", map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "x:"))
}

func TestPortfolioService_Project(t *testing.T) {
	repo := samplePortfolio()
	svc := NewPortfolioService(repo, newMemStore(), time.Minute, nil, discardLogger())

	report, err := svc.Project(context.Background(), 7, "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, "AUD", report.Currency)
	assert.Equal(t, 5, report.Horizon)
	require.Len(t, report.Years, 5)
	assert.Equal(t, 2, report.Years[0].Properties)
	for i, y := range report.Years {
		assert.Equal(t, y.PropertyValue-y.Debt, y.Equity)
		rented := report.Properties[0].Projection.Yearly[i].Tax
		require.NotNil(t, rented)
		assert.Equal(t, rented.TaxBenefit, y.TaxBenefit)
		assert.Equal(t, rented.TaxPayable, y.TaxPayable)
	}
	assert.Greater(t, report.Years[0].TaxBenefit, engine.Cents(0), "interest and depreciation exceed rent")

	_, err = svc.Project(context.Background(), 8, "p1", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func newTestExporter(t *testing.T, files FileStore) (*ExportService, *memStore, *recorder) {
	t.Helper()
	store := newMemStore()
	rec := &recorder{}
	calc := NewCalculatorService(nil, 0, nil, discardLogger())
	projects := NewPortfolioService(samplePortfolio(), nil, 0, nil, discardLogger())
	s := NewExportService(store, files, rec, calc, projects, metrics.New(), discardLogger(), time.Minute)
	s.spawn = func(f func()) { f() }
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, store, rec
}

func TestExport_ProjectionWorkbook(t *testing.T) {
	files := &memFiles{}
	s, _, rec := newTestExporter(t, files)

	in := engine.ProjectionInput{
		Loan: &engine.MortgageInput{
			Principal: 30_000_000, AnnualRate: 600, TermYears: 25,
			Structure: engine.PrincipalAndInterest, Frequency: engine.Monthly,
			Region: engine.RegionAU, StartDate: purchased,
		},
		PropertyValue: 40_000_000,
		Years:         3,
	}
	id, err := s.StartProjectionExport(context.Background(), in, 7)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "exports:"))

	view, err := s.GetExport(context.Background(), id, 7)
	require.NoError(t, err)
	assert.Equal(t, "ready", view.Stage)
	assert.Equal(t, float64(100), view.Progress)
	require.NotNil(t, view.FileURL)
	assert.Equal(t, "/files/projection_20260301_120000.xlsx", *view.FileURL)

	data := files.files["projection_20260301_120000.xlsx"]
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Schedule", "Yearly"}, f.GetSheetList())
	rows, err := f.GetRows("Schedule")
	require.NoError(t, err)
	assert.Len(t, rows, 37)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, "complete", last.kind)
	for _, e := range rec.events {
		if e.kind == "progress" && e.stage == "generating" {
			assert.LessOrEqual(t, e.progress, float64(90))
		}
	}
}

func TestExport_RejectsInvalidInputSynchronously(t *testing.T) {
	s, store, _ := newTestExporter(t, &memFiles{})
	_, err := s.StartProjectionExport(context.Background(), engine.ProjectionInput{}, 7)
	require.Error(t, err)
	assert.Zero(t, store.writes)
}

func TestExport_StorageFailureMarksFailed(t *testing.T) {
	s, _, rec := newTestExporter(t, &memFiles{err: errors.New("disk full")})

	id, err := s.StartPortfolioExport(context.Background(), 7, "p1", 3)
	require.NoError(t, err)

	view, err := s.GetExport(context.Background(), id, 7)
	require.NoError(t, err)
	assert.Equal(t, "failed", view.Stage)
	assert.Contains(t, view.Error, "disk full")
	assert.Nil(t, view.FileURL)
	assert.Equal(t, "failed", rec.events[len(rec.events)-1].kind)
}

func TestExport_PortfolioOwnership(t *testing.T) {
	s, _, _ := newTestExporter(t, &memFiles{})
	_, err := s.StartPortfolioExport(context.Background(), 8, "p1", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetExports_NewestFirstAndOwned(t *testing.T) {
	s, _, _ := newTestExporter(t, &memFiles{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, user := range []int64{7, 7, 9} {
		st := &ExportStatus{
			Key:     "exports:" + string(rune('a'+i)),
			UserID:  user,
			Stage:   "ready",
			Created: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.saveStatus(context.Background(), st))
	}
	s.now = func() time.Time { return base.Add(time.Hour) }

	list, err := s.GetExports(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "exports:b", list[0].Key)
	assert.Equal(t, "exports:a", list[1].Key)
	assert.Equal(t, "59 minutes ago", list[0].CreatedAgo)

	_, err = s.GetExport(context.Background(), "exports:c", 7)
	assert.ErrorIs(t, err, ErrNotFound)
}
