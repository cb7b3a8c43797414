package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"propvest/internal/engine"
	"propvest/internal/service"
)

type Calculator interface {
	Repayment(ctx context.Context, m engine.MortgageInput) (engine.Cents, error)
	Schedule(ctx context.Context, m engine.MortgageInput, opts engine.ScheduleOptions) (engine.AmortizationSchedule, error)
	Projection(ctx context.Context, in engine.ProjectionInput) (engine.Projection, error)
	Compare(ctx context.Context, a, b engine.Scenario) (engine.ScenarioComparison, error)
	Tax(ctx context.Context, in engine.TaxInput) (engine.TaxCalculation, error)
	Purchase(ctx context.Context, loan, value engine.Cents, region engine.Region) (service.PurchaseReport, error)
	Growth(ctx context.Context, start engine.Cents, rate engine.BasisPoints, startYear, years int, forecasts []engine.RateForecast) (engine.GrowthForecast, error)
}

type PortfolioProjector interface {
	List(ctx context.Context, userID int64, region, search *string) ([]service.PortfolioSummary, error)
	Project(ctx context.Context, userID int64, portfolioID string, years int) (service.PortfolioReport, error)
}

type ProjectionExporter interface {
	StartProjectionExport(ctx context.Context, in engine.ProjectionInput, userID int64) (string, error)
	StartPortfolioExport(ctx context.Context, userID int64, portfolioID string, years int) (string, error)
}

type ExportListService interface {
	GetExports(ctx context.Context, userID int64) ([]service.ExportView, error)
	GetExport(ctx context.Context, exportID string, userID int64) (service.ExportView, error)
}

type Handler struct {
	calc       Calculator
	portfolios PortfolioProjector
	exports    ProjectionExporter
	exportList ExportListService

	region engine.Region
	log    *slog.Logger
	now    func() time.Time
}

func NewHandler(
	calc Calculator,
	portfolios PortfolioProjector,
	exports ProjectionExporter,
	exportList ExportListService,
	defaultRegion engine.Region,
	log *slog.Logger,
) *Handler {
	if defaultRegion == "" {
		defaultRegion = engine.RegionAU
	}
	return &Handler{
		calc:       calc,
		portfolios: portfolios,
		exports:    exports,
		exportList: exportList,
		region:     defaultRegion,
		log:        log.With("component", "http"),
		now:        time.Now,
	}
}

// InitRouterWithAuth registers /health publicly and everything else behind authMiddleware.
// protected lets the caller mount extra authenticated routes such as the websocket.
func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler, protected ...func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, "ok", map[string]any{"time": h.now().UTC()})
	})

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		for _, mount := range protected {
			mount(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/calc", func(r chi.Router) {
				r.Post("/repayment", h.repayment)
				r.Post("/schedule", h.schedule)
				r.Post("/projection", h.projection)
				r.Post("/compare", h.compare)
				r.Post("/tax", h.tax)
				r.Post("/lvr", h.lvr)
				r.Post("/growth", h.growth)
			})

			r.Route("/portfolios", func(r chi.Router) {
				r.Get("/", h.listPortfolios)
				r.Get("/{portfolio_id}/projection", h.portfolioProjection)
			})

			r.Route("/export", func(r chi.Router) {
				r.Get("/", h.listExports)
				r.Get("/{export_id}", h.getExport)
				r.Post("/projection", h.exportProjection)
				r.Post("/portfolio/{portfolio_id}", h.exportPortfolio)
			})
		})
	})

	return r
}
