package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"propvest/internal/transport/auth"
)

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exports, err := h.exportList.GetExports(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "list exports", err)
		return
	}

	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}

	export, err := h.exportList.GetExport(r.Context(), exportKeyPrefix+exportIDParam, userID)
	if err != nil {
		h.log.Debug("export lookup failed", "export_id", exportIDParam, "error", err)
		ErrorNotFound(w, "export not found")
		return
	}

	Success(w, "", export)
}
