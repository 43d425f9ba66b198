package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onexay/travis-notify/internal/apperr"
	"github.com/onexay/travis-notify/internal/auth"
	"github.com/onexay/travis-notify/internal/notify"
	"github.com/onexay/travis-notify/internal/types"
)

const (
	payloadField   = "payload"
	maxWebhookBody = 1 << 20
)

// handleWebhook records an authenticated Travis notification and mails its
// status. The route guard has already verified the headers.
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.logger.WithContext(ctx)

	owner, repo, err := splitSlug(r.Header.Get(auth.HeaderRepoSlug))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	meta := map[string]any{"owner": owner, "repo": repo}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := decodePayload(r, meta)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.store.Record(ctx, owner, repo, types.Record{Payload: payload})
	if err != nil {
		s.writeError(w, r, storeError(err, meta))
		return
	}
	logger.Info("webhook recorded",
		"owner", owner,
		"repo", repo,
		"id", result.Record.ID,
		"recent", result.Recent,
		"archived", result.Archived,
	)

	// Mail failures are logged; the delivery is still acknowledged.
	if err := s.notifier.Notify(ctx, notify.Event{
		Owner:    owner,
		Repo:     repo,
		Payload:  payload,
		Settings: s.settings,
	}); err != nil {
		logger.Error("notification failed", "owner", owner, "repo", repo, "code", apperr.TextNotifyFailure, "error", err)
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// decodePayload reads the payload form field and checks it holds a JSON
// object. The result is compacted.
func decodePayload(r *http.Request, meta map[string]any) (json.RawMessage, error) {
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.BadInput("request body too large", apperr.TextMalformedPayload, meta)
		}
		return nil, apperr.BadInput("request body is not a valid form", apperr.TextMalformedPayload, meta)
	}

	values, ok := r.PostForm[payloadField]
	if !ok || len(values) == 0 {
		return nil, apperr.BadInput("form field payload is required", apperr.TextMalformedPayload, meta)
	}

	raw := bytes.TrimSpace([]byte(values[0]))
	if len(raw) == 0 || raw[0] != '{' || !json.Valid(raw) {
		return nil, apperr.BadInput("payload must be a JSON object", apperr.TextMalformedPayload, meta)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, apperr.BadInput("payload must be a JSON object", apperr.TextMalformedPayload, meta)
	}
	return buf.Bytes(), nil
}
