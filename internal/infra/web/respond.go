package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"visitgate/internal/domain"
)

type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Unclassified errors
// become opaque 500s so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	var cooldown *domain.CooldownError
	if errors.As(err, &cooldown) {
		secs := cooldown.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error(), RetryAfter: secs})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSlotConflict),
		errors.Is(err, domain.ErrRoomInUse),
		errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrQuotaExceeded),
		errors.Is(err, domain.ErrRoomLocked),
		errors.Is(err, domain.ErrTrialExpired),
		errors.Is(err, domain.ErrSubscriptionExpired),
		errors.Is(err, domain.ErrSubscriptionInactive):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrPastSchedule):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrTooManyRequests):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrOtpMismatch),
		errors.Is(err, domain.ErrOtpExpired),
		errors.Is(err, domain.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
