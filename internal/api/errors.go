package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"smartturf/internal/database"
	"smartturf/internal/service"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// statusFromError maps core errors onto HTTP status codes. Anything
// unrecognized is an internal error and must not leak details to the caller.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrTurfNotFound),
		errors.Is(err, database.ErrKitNotFound),
		errors.Is(err, database.ErrMatchNotFound),
		errors.Is(err, database.ErrBookingNotFound),
		errors.Is(err, database.ErrUserNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, database.ErrSlotTaken),
		errors.Is(err, database.ErrKitUnavailable),
		errors.Is(err, database.ErrMatchFull),
		errors.Is(err, database.ErrAlreadyJoined),
		errors.Is(err, database.ErrEmailTaken):
		return http.StatusConflict, err.Error()

	case errors.Is(err, database.ErrNotHourAligned),
		errors.Is(err, database.ErrOutsideWindow),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar),
		errors.Is(err, database.ErrInvalidPlayersNeeded),
		errors.Is(err, database.ErrInvalidMatchTime),
		errors.Is(err, service.ErrInvalidRegistration),
		errors.Is(err, service.ErrInvalidCatalogEntry):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}

// handleError writes the mapped status and logs server-side failures with
// operation context.
func (s *HTTPServer) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, message := statusFromError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, message)
}
