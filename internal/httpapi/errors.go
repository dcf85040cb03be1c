package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingParameter), errors.Is(err, domain.ErrNoPortsToProbe):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTargetNotAllowed), errors.Is(err, domain.ErrTargetNotFound):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. 5xx bodies carry only the sentinel text,
// never the wrapped I/O detail.
func (s *Server) fail(w http.ResponseWriter, log *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		log.Error("request_failed", zap.Error(err))
		msg = "internal error"
		if errors.Is(err, domain.ErrRegistryUnreadable) {
			msg = domain.ErrRegistryUnreadable.Error()
		}
	} else {
		log.Info("request_rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
