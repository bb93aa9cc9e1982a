package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/frete/internal/observability"
	"github.com/Simplici0/frete/internal/tariff"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto HTTP statuses. Unexpected errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, tariff.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, tariff.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, tariff.ErrUnknownCategory):
		status, code = http.StatusUnprocessableEntity, "unknown_category"
	case errors.Is(err, tariff.ErrDuplicateSpecialTax):
		status, code = http.StatusUnprocessableEntity, "duplicate_special_tax"
	case errors.Is(err, tariff.ErrMissingActiveVersion):
		status, code = http.StatusServiceUnavailable, "missing_active_version"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		observability.FromContext(r.Context()).Error("request failed", zap.Error(err))
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode request body: %v", tariff.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", tariff.ErrInvalidInput, raw)
	}
	return id, nil
}
