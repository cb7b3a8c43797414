package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"propvest/internal/transport/auth"
)

const exportKeyPrefix = "exports:"

func (h *Handler) exportProjection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "export projection", err)
		return
	}
	in, err := req.toEngine(h.region)
	if err != nil {
		h.writeError(w, r, "export projection", err)
		return
	}

	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportID, err := h.exports.StartProjectionExport(r.Context(), in, userID)
	if err != nil {
		h.writeError(w, r, "export projection", err)
		return
	}

	SuccessAccepted(w, "Export queued", map[string]any{
		"export_id": strings.TrimPrefix(exportID, exportKeyPrefix),
	})
}

func (h *Handler) exportPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	years, err := yearsParam(r, defaultProjectionYears)
	if err != nil {
		h.writeError(w, r, "export portfolio", err)
		return
	}

	exportID, err := h.exports.StartPortfolioExport(r.Context(), userID, chi.URLParam(r, "portfolio_id"), years)
	if err != nil {
		h.writeError(w, r, "export portfolio", err)
		return
	}

	SuccessAccepted(w, "Export queued", map[string]any{
		"export_id": strings.TrimPrefix(exportID, exportKeyPrefix),
	})
}
