package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onexay/travis-notify/internal/apperr"
	"github.com/onexay/travis-notify/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// storeError maps storage failures onto client-facing envelopes.
func storeError(err error, meta map[string]any) error {
	var notFound *storage.NotFoundError
	if errors.As(err, &notFound) {
		return apperr.NotFound(err, notFound.Error())
	}

	var validation *storage.ValidationError
	if errors.As(err, &validation) {
		return apperr.BadInput(validation.Error(), apperr.TextBadInput, meta)
	}

	// conflicts reach here only once retries are exhausted
	return apperr.StoreUnavailable(err, meta)
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := apperr.Status(err)
	logger := s.logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "code", code, "error", err)
	} else {
		logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "code", code)
	}
	writeJSON(w, status, errorBody{Error: apperr.Message(err), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
