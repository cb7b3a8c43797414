package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"propvest/internal/domain"
	"propvest/internal/engine"
	"propvest/internal/metrics"
	"propvest/internal/repository"
)

var ErrNotFound = errors.New("not found")

type PortfolioRepository interface {
	List(ctx context.Context, f repository.PortfoliosFilter) ([]domain.Portfolio, error)
	Get(ctx context.Context, userID int64, portfolioID string) (*domain.Portfolio, error)
	Properties(ctx context.Context, portfolioID string) ([]domain.Property, error)
}

// PortfolioReport is a portfolio projection labelled with the portfolio it belongs to.
type PortfolioReport struct {
	PortfolioID string `json:"portfolio_id"`
	Name        string `json:"name"`
	Region      string `json:"region"`
	Currency    string `json:"currency"`
	Horizon     int    `json:"horizon_years"`
	engine.PortfolioProjection
}

type PortfolioSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

type PortfolioService struct {
	repo    PortfolioRepository
	cache   resultCache
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewPortfolioService(repo PortfolioRepository, cache Cache, ttl time.Duration, m *metrics.Metrics, log *slog.Logger) *PortfolioService {
	log = log.With("component", "portfolio")
	return &PortfolioService{
		repo:    repo,
		cache:   resultCache{cache: cache, ttl: ttl, metrics: m, log: log},
		metrics: m,
		log:     log,
	}
}

func (s *PortfolioService) List(ctx context.Context, userID int64, region, search *string) ([]PortfolioSummary, error) {
	items, err := s.repo.List(ctx, repository.PortfoliosFilter{UserID: userID, Region: region, Search: search})
	if err != nil {
		return nil, err
	}
	out := make([]PortfolioSummary, 0, len(items))
	for _, p := range items {
		out = append(out, PortfolioSummary{ID: p.ID, Name: p.Name, Region: p.Region, CreatedAt: p.CreatedAt})
	}
	return out, nil
}

// Get returns the caller's portfolio or ErrNotFound.
func (s *PortfolioService) Get(ctx context.Context, userID int64, portfolioID string) (*domain.Portfolio, error) {
	p, err := s.repo.Get(ctx, userID, portfolioID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("portfolio %s: %w", portfolioID, ErrNotFound)
	}
	return p, err
}

// Project loads the stored inputs of a portfolio and projects every property over years.
func (s *PortfolioService) Project(ctx context.Context, userID int64, portfolioID string, years int) (PortfolioReport, error) {
	portfolio, err := s.Get(ctx, userID, portfolioID)
	if err != nil {
		return PortfolioReport{}, err
	}
	props, err := s.repo.Properties(ctx, portfolioID)
	if err != nil {
		return PortfolioReport{}, fmt.Errorf("load properties: %w", err)
	}
	inputs, err := PropertyInputs(*portfolio, props)
	if err != nil {
		return PortfolioReport{}, err
	}

	key, err := cacheKey("portfolio", struct {
		ID     string
		Years  int
		Inputs []engine.PropertyInput
	}{portfolioID, years, inputs})
	if err != nil {
		return PortfolioReport{}, err
	}

	projection, err := cached(ctx, s.cache, key, func() (engine.PortfolioProjection, error) {
		started := time.Now()
		out, err := engine.ProjectPortfolio(ctx, inputs, years)
		s.metrics.ObserveCalculation("portfolio", started, err)
		return out, err
	})
	if err != nil {
		return PortfolioReport{}, err
	}

	region, _ := engine.ParseRegion(portfolio.Region)
	s.log.Info("portfolio projected", "portfolio_id", portfolioID, "properties", len(inputs), "years", years)
	return PortfolioReport{
		PortfolioID:         portfolio.ID,
		Name:                portfolio.Name,
		Region:              string(region),
		Currency:            engine.Params(region).Currency,
		Horizon:             years,
		PortfolioProjection: projection,
	}, nil
}
