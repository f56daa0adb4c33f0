package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/restaurantledger/settlement/internal/apperr"
	"go.uber.org/zap"
)

type errorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorDetail    `json:"error"`
	Meta  map[string]any `json:"meta"`
}

var restaurantIDPattern = regexp.MustCompile(`res_\w+`)

// writeJSON marshals v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError translates err into the structured error envelope and picks
// the response status. Unrecognized errors become a 500 SYSTEM_ERROR
// without leaking internal detail, the same posture as the original's
// catch-all handler.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		if integrityErr, ok := asIntegrityViolation(err); ok {
			appErr = integrityErr
		} else {
			logger.Error("unhandled error", zap.Error(err), zap.String("path", r.URL.Path))
			appErr = apperr.System("an unexpected error occurred", "")
		}
	}

	if appErr.Status() >= 500 {
		logger.Error("request failed", zap.String("code", appErr.Code()), zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.String("code", appErr.Code()), zap.String("message", appErr.Error()), zap.String("path", r.URL.Path))
	}

	writeJSON(w, appErr.Status(), errorResponse{
		Error: errorDetail{Code: appErr.Code(), Message: appErr.Error(), Details: appErr.Details()},
		Meta: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"path":      r.URL.Path,
		},
	})
}

// asIntegrityViolation inspects a raw (non-apperr) error surfaced from the
// database layer and reclassifies known constraint violations: a foreign
// key violation against restaurants becomes a 404 RESTAURANT_NOT_FOUND,
// extracting the offending id from the driver error text; every other
// foreign key, unique, check, or not-null violation becomes a 409
// INTEGRITY_ERROR. Mirrors the original's integrity_error_handler.
func asIntegrityViolation(err error) (*apperr.Error, bool) {
	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "foreign key constraint") && strings.Contains(msg, "restaurants") {
		id := restaurantIDPattern.FindString(err.Error())
		if id == "" {
			id = "unknown"
		}
		return apperr.RestaurantNotFound(id), true
	}

	switch {
	case strings.Contains(msg, "foreign key constraint"),
		strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "violates check constraint"),
		strings.Contains(msg, "violates not-null constraint"):
		return apperr.Integrity(err.Error()), true
	default:
		return nil, false
	}
}
