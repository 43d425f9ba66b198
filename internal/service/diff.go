package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/onexay/travis-notify/internal/apperr"
	"github.com/onexay/travis-notify/internal/storage"
	"github.com/onexay/travis-notify/internal/types"
)

// DiffResult compares the two newest notifications of a repository.
type DiffResult struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Diff string `json:"diff"`
}

// LatestDiff diffs the newest notification against the one before it. A
// repository with a single notification is diffed against nothing.
func LatestDiff(records []types.Record) (DiffResult, error) {
	if len(records) == 0 {
		return DiffResult{}, apperr.NotFound(nil, "no notifications recorded")
	}

	current, err := indentPayload(records[0].Payload)
	if err != nil {
		return DiffResult{}, err
	}
	result := DiffResult{To: records[0].ID}

	previous := ""
	if len(records) > 1 {
		if previous, err = indentPayload(records[1].Payload); err != nil {
			return DiffResult{}, err
		}
		result.From = records[1].ID
	}

	result.Diff = computeDiff(previous, current)
	return result, nil
}

func computeDiff(previous, current string) string {
	if previous == current {
		return ""
	}

	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	}

	res, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return strings.TrimSpace(current)
	}

	return strings.TrimSpace(res)
}

func indentPayload(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", apperr.Internal(err, "stored payload is not valid JSON")
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

func (s *Service) handleDiff(w http.ResponseWriter, r *http.Request) {
	owner, repo := r.PathValue("owner"), r.PathValue("repo")
	records, err := s.store.History(r.Context(), storage.HistoryOptions{
		Owner: owner,
		Repo:  repo,
		Limit: 2,
	})
	if err != nil {
		s.writeError(w, r, storeError(err, map[string]any{"owner": owner, "repo": repo}))
		return
	}

	result, err := LatestDiff(records)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner": owner,
		"name":  repo,
		"from":  result.From,
		"to":    result.To,
		"diff":  result.Diff,
	})
}
