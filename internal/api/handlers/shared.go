// Package handlers adapts HTTP requests to service calls.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return v, nil
}

// symbolParam returns the normalized {symbol} path parameter.
func symbolParam(r *http.Request) string {
	return validation.NormalizeSymbol(chi.URLParam(r, "symbol"))
}

// respondValidationError writes a 400 with the per-field messages of a
// validation.Error, or the plain message of any other error.
func respondValidationError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
		return
	}
	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
}

// respondServiceError maps a service error to its HTTP status. message is
// used for errors without a more specific mapping.
func respondServiceError(w http.ResponseWriter, err error, message string) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		respondValidationError(w, err)
	case errors.Is(err, apperrors.ErrInstrumentNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrInstrumentNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrDuplicateInstrument):
		response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateInstrument.Error(), err.Error())
	case errors.Is(err, apperrors.ErrEmptySnapshot):
		response.RespondError(w, http.StatusConflict, apperrors.ErrEmptySnapshot.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidSymbol),
		errors.Is(err, apperrors.ErrInvalidTransactionKind),
		errors.Is(err, apperrors.ErrInvalidIndex),
		errors.Is(err, apperrors.ErrBackupInvalid):
		response.RespondError(w, http.StatusBadRequest, message, err.Error())
	case errors.Is(err, apperrors.ErrBackupKeyMissing):
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrBackupKeyMissing.Error(), "")
	default:
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}
