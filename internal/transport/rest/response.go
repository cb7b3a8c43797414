package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"propvest/internal/engine"
	"propvest/internal/service"
)

type APIResponse struct {
	ErrorCode int    `json:"error_code"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
}

func Response(w http.ResponseWriter, message string, data any, errorCode int, status string, httpStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	response := APIResponse{
		ErrorCode: errorCode,
		Status:    status,
		Message:   message,
		Data:      data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("write response failed", "error", err)
	}
}

func Success(w http.ResponseWriter, message string, data any) {
	Response(w, message, data, 0, "success", http.StatusOK)
}

func SuccessAccepted(w http.ResponseWriter, message string, data any) {
	Response(w, message, data, 0, "success", http.StatusAccepted)
}

func Error(w http.ResponseWriter, message string, errorCode int, httpStatus int) {
	Response(w, message, nil, errorCode, "error", httpStatus)
}

func ErrorBadRequest(w http.ResponseWriter, message string) {
	Error(w, message, 400, http.StatusBadRequest)
}

// ErrorValidation reports every offending field at once.
func ErrorValidation(w http.ResponseWriter, fields []engine.FieldError) {
	Response(w, "validation failed", map[string]any{"fields": fields}, 400, "error", http.StatusBadRequest)
}

func ErrorUnauthorized(w http.ResponseWriter, message string) {
	Error(w, message, 401, http.StatusUnauthorized)
}

func ErrorNotFound(w http.ResponseWriter, message string) {
	Error(w, message, 404, http.StatusNotFound)
}

func ErrorInternal(w http.ResponseWriter, message string) {
	Error(w, message, 500, http.StatusInternalServerError)
}

// writeError maps request, engine and service errors onto the response envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		reqErr *ValidationError
		verr   *engine.ValidationError
	)
	switch {
	case errors.Is(err, errInvalidJSON):
		ErrorBadRequest(w, "invalid JSON")
	case errors.As(err, &reqErr):
		ErrorValidation(w, []engine.FieldError{{Field: reqErr.Field, Message: reqErr.Message}})
	case errors.As(err, &verr):
		ErrorValidation(w, verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		ErrorNotFound(w, "not found")
	case errors.Is(err, context.Canceled):
		h.log.Info(op+" cancelled", "path", r.URL.Path)
		Error(w, "request cancelled", 499, 499)
	default:
		h.log.Error(op+" failed", "path", r.URL.Path, "error", err)
		ErrorInternal(w, "internal error")
	}
}
