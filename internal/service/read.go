package service

import (
	"net/http"
	"strconv"

	"github.com/onexay/travis-notify/internal/apperr"
	"github.com/onexay/travis-notify/internal/storage"
	"github.com/onexay/travis-notify/internal/types"
)

func (s *Service) handleListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := s.store.ListOwners(r.Context())
	if err != nil {
		s.writeError(w, r, storeError(err, nil))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owners": owners})
}

func (s *Service) handleOwner(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repos, err := s.store.ListRepos(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, storeError(err, map[string]any{"owner": owner}))
		return
	}
	writeJSON(w, http.StatusOK, types.Owner{Name: owner, Repos: repos})
}

func (s *Service) handleRepo(w http.ResponseWriter, r *http.Request) {
	owner, repo := r.PathValue("owner"), r.PathValue("repo")
	recent, err := s.store.History(r.Context(), storage.HistoryOptions{
		Owner: owner,
		Repo:  repo,
		Tier:  storage.TierRecent,
	})
	if err != nil {
		s.writeError(w, r, storeError(err, map[string]any{"owner": owner, "repo": repo}))
		return
	}
	writeJSON(w, http.StatusOK, types.Repo{Owner: owner, Name: repo, Recent: recent})
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	owner, repo := r.PathValue("owner"), r.PathValue("repo")
	meta := map[string]any{"owner": owner, "repo": repo}
	query := r.URL.Query()

	tier, err := storage.ParseTier(query.Get("tier"))
	if err != nil {
		s.writeError(w, r, storeError(err, meta))
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, r, apperr.BadInput("limit must be a non-negative integer", apperr.TextBadInput, meta))
			return
		}
	}

	records, err := s.store.History(r.Context(), storage.HistoryOptions{
		Owner: owner,
		Repo:  repo,
		Tier:  tier,
		Limit: limit,
	})
	if err != nil {
		s.writeError(w, r, storeError(err, meta))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"owner":   owner,
		"name":    repo,
		"tier":    tier,
		"records": records,
	})
}
