package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onexay/travis-notify/internal/types"
)

// Tier selects which part of a repository's history to read.
type Tier string

const (
	TierAll     Tier = "all"
	TierRecent  Tier = "recent"
	TierArchive Tier = "archive"
)

// ParseTier accepts "", "all", "recent" or "archive".
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case "", TierAll:
		return TierAll, nil
	case TierRecent:
		return TierRecent, nil
	case TierArchive:
		return TierArchive, nil
	}
	return "", &ValidationError{Message: fmt.Sprintf("unknown tier %q", s)}
}

// HistoryOptions controls history retrieval. Results are newest-first.
type HistoryOptions struct {
	Owner string
	Repo  string
	Tier  Tier
	Limit int
}

// RecordResult reports the tier sizes of a repository after a push.
type RecordResult struct {
	Record   types.Record
	Recent   int
	Archived int
}

func validateNames(owner, repo string) error {
	if owner == "" || repo == "" {
		return &ValidationError{Message: "owner and repo are required"}
	}
	if strings.Contains(owner, "/") || strings.Contains(repo, "/") {
		return &ValidationError{Message: "owner and repo must not contain '/'"}
	}
	return nil
}

// prepareRecord assigns an id and receive time when the caller left them empty.
func prepareRecord(rec types.Record, clock func() time.Time) (types.Record, error) {
	if len(rec.Payload) == 0 {
		return rec, &ValidationError{Message: "payload is required"}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = clock()
	}
	rec.ReceivedAt = rec.ReceivedAt.UTC()
	return rec, nil
}
