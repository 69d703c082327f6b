package handlers

import (
	"errors"
	"net/http"

	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/logging"
	"tms-load-service/internal/platform/obs"

	"github.com/sirupsen/logrus"
)

const forbiddenMessage = "actor is not permitted to perform this action"

// writeDomainError maps the domain error taxonomy onto HTTP responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		te *domain.TransitionError
		vc *domain.VersionConflictError
	)

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, r, http.StatusBadRequest, validationMessage(err))

	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, r, http.StatusForbidden, forbiddenMessage)

	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")

	case errors.As(err, &vc):
		setETag(w, vc.Actual)
		writeJSON(w, r, http.StatusConflict, map[string]any{
			"error":            "load was modified by someone else; reload and retry",
			"expected_version": vc.Expected,
			"current_version":  vc.Actual,
		})

	case errors.As(err, &te):
		writeJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
			"error": te.Error(),
			"from":  string(te.From),
			"to":    string(te.To),
		})

	case errors.Is(err, domain.ErrRepository):
		w.Header().Set("Retry-After", "1")
		logError(r, "data source unavailable", err)
		writeError(w, r, http.StatusServiceUnavailable, "data source unavailable, retry later")

	default:
		logError(r, "unhandled error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func logError(r *http.Request, msg string, err error) {
	logging.Logger().WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"req_id": obs.RequestID(r.Context()),
	}).WithError(err).Error(msg)
}
