package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"propvest/internal/transport/auth"
)

const defaultProjectionYears = 10

func optionalQuery(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func (h *Handler) listPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	items, err := h.portfolios.List(r.Context(), userID, optionalQuery(r, "region"), optionalQuery(r, "search"))
	if err != nil {
		h.writeError(w, r, "list portfolios", err)
		return
	}
	Success(w, "", items)
}

func (h *Handler) portfolioProjection(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	years, err := yearsParam(r, defaultProjectionYears)
	if err != nil {
		h.writeError(w, r, "portfolio projection", err)
		return
	}

	report, err := h.portfolios.Project(r.Context(), userID, chi.URLParam(r, "portfolio_id"), years)
	if err != nil {
		h.writeError(w, r, "portfolio projection", err)
		return
	}
	Success(w, "", report)
}
