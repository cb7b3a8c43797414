package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"propvest/internal/domain"
	"propvest/internal/repository"
)

var errMiss = errors.New("redis: nil")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore implements Cache and StatusStore.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
	sets   map[string][]string
	writes int
	gets   int
	fail   bool
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}, sets: map[string][]string{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.values[key]
	if !ok {
		return "", errMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("connection refused")
	}
	m.writes++
	m.values[key] = value.(string)
	return nil
}

func (m *memStore) SAdd(_ context.Context, key string, members ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range members {
		s := mem.(string)
		found := false
		for _, have := range m.sets[key] {
			if have == s {
				found = true
			}
		}
		if !found {
			m.sets[key] = append(m.sets[key], s)
		}
	}
	return nil
}

func (m *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sets[key]...), nil
}

type memFiles struct {
	files map[string][]byte
	err   error
}

func (f *memFiles) Put(_ context.Context, name string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	f.files[name] = data
	return "/files/" + name, nil
}

type event struct {
	kind     string
	exportID string
	progress float64
	stage    string
	detail   string
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(e event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) NotifyExportProgress(_ context.Context, _ int64, id string, progress float64, stage string) error {
	r.add(event{kind: "progress", exportID: id, progress: progress, stage: stage})
	return nil
}

func (r *recorder) NotifyExportComplete(_ context.Context, _ int64, id, url, _ string) error {
	r.add(event{kind: "complete", exportID: id, detail: url})
	return nil
}

func (r *recorder) NotifyExportFailed(_ context.Context, _ int64, id, msg string) error {
	r.add(event{kind: "failed", exportID: id, detail: msg})
	return nil
}

type fakeRepo struct {
	portfolios map[string]domain.Portfolio
	properties map[string][]domain.Property
	loads      int
}

func (r *fakeRepo) List(_ context.Context, f repository.PortfoliosFilter) ([]domain.Portfolio, error) {
	var out []domain.Portfolio
	for _, p := range r.portfolios {
		if p.UserID == f.UserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) Get(_ context.Context, userID int64, id string) (*domain.Portfolio, error) {
	p, ok := r.portfolios[id]
	if !ok || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeRepo) Properties(_ context.Context, id string) ([]domain.Property, error) {
	r.loads++
	return r.properties[id], nil
}

var purchased = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func samplePortfolio() *fakeRepo {
	return &fakeRepo{
		portfolios: map[string]domain.Portfolio{
			"p1": {ID: "p1", UserID: 7, Name: "Brisbane", Region: "AU", CreatedAt: purchased},
		},
		properties: map[string][]domain.Property{
			"p1": {
				{
					ID:            "h1",
					PortfolioID:   "p1",
					Name:          "Unit 4",
					PurchasePrice: 60_000_000,
					PurchaseDate:  purchased,
					GrowthRate:    5,
					ExpenseGrowth: 2.5,
					Loan: &domain.Loan{
						ID:           "l1",
						Principal:    48_000_000,
						InterestRate: 6.2,
						TermYears:    30,
						Structure:    "principal_and_interest",
						Frequency:    "monthly",
						StartDate:    purchased,
						RateForecasts: []domain.Forecast{
							{Year: 2028, Rate: 5.5},
						},
					},
					Rental:   &domain.Rental{WeeklyRent: 60_000, VacancyRate: 2, RentGrowth: 3},
					Expenses: []domain.Expense{{Category: "rates", Amount: 50_000, Frequency: "monthly"}},
				},
				{
					ID:            "h2",
					PortfolioID:   "p1",
					Name:          "Cottage",
					PurchasePrice: 40_000_000,
					CurrentValue:  45_000_000,
					PurchaseDate:  purchased,
					GrowthRate:    4,
					OwnerOccupied: true,
					Rental:        &domain.Rental{WeeklyRent: 50_000},
				},
			},
		},
	}
}
