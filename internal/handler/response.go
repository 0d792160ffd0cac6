package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andrei-d/partybank/internal/apperrors"
)

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps the domain error taxonomy onto HTTP statuses; every
// other error is an internal one and its detail stays in the log.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		validation   *apperrors.ValidationError
		notFound     *apperrors.NotFoundError
		conflict     *apperrors.ConflictError
		insufficient *apperrors.InsufficientFundsError
		unavailable  *apperrors.ExchangeUnavailableError
	)
	switch {
	case errors.As(err, &validation):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Error(), Field: validation.Field})
	case errors.As(err, &notFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error()})
	case errors.As(err, &conflict):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: conflict.Error()})
	case errors.As(err, &insufficient):
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: insufficient.Error()})
	case errors.As(err, &unavailable):
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: unavailable.Error()})
	default:
		h.log.Errorf("Internal error: %v", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
