package storage

import (
	"context"
	"time"

	"github.com/onexay/travis-notify/internal/appendlog"
	"github.com/onexay/travis-notify/internal/directory"
	"github.com/onexay/travis-notify/internal/types"
)

// Store persists the owner -> repo directory and each repo's history.
type Store interface {
	// Record finds or creates owner/repo and pushes rec onto its history as
	// one atomic unit.
	Record(ctx context.Context, owner, repo string, rec types.Record) (RecordResult, error)
	// EnsureRepo finds or creates owner/repo without recording anything.
	EnsureRepo(ctx context.Context, owner, repo string) error
	ListOwners(ctx context.Context) ([]string, error)
	ListRepos(ctx context.Context, owner string) ([]string, error)
	History(ctx context.Context, opts HistoryOptions) ([]types.Record, error)
	Close() error
}

// NotFoundError signals missing records.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " " + e.Key + " not found"
}

// ConflictError signals a transaction that kept conflicting with concurrent writers.
type ConflictError struct {
	Resource string
	Key      string
	Err      error
}

func (e *ConflictError) Error() string {
	msg := e.Resource + " " + e.Key + " conflicts with concurrent writers"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConflictError) Unwrap() error { return e.Err }

// ValidationError represents invalid input supplied by clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// memoryStore keeps the directory in-process for development and testing.
type memoryStore struct {
	clock func() time.Time
	dir   *directory.Directory[types.Record]
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore(opts Options) Store {
	opts = opts.withDefaults()
	return &memoryStore{
		clock: opts.Clock,
		dir:   directory.New[types.Record](opts.RecentLimit),
	}
}

func (m *memoryStore) Record(ctx context.Context, owner, repo string, rec types.Record) (RecordResult, error) {
	if err := validateNames(owner, repo); err != nil {
		return RecordResult{}, err
	}
	rec, err := prepareRecord(rec, m.clock)
	if err != nil {
		return RecordResult{}, err
	}
	recent, archived := m.dir.Record(owner, repo, rec)
	return RecordResult{Record: rec, Recent: recent, Archived: archived}, nil
}

func (m *memoryStore) EnsureRepo(ctx context.Context, owner, repo string) error {
	if err := validateNames(owner, repo); err != nil {
		return err
	}
	m.dir.FindCreateRepo(owner, repo)
	return nil
}

func (m *memoryStore) ListOwners(ctx context.Context) ([]string, error) {
	return m.dir.Owners(), nil
}

func (m *memoryStore) ListRepos(ctx context.Context, owner string) ([]string, error) {
	repos, ok := m.dir.RepoNames(owner)
	if !ok {
		return nil, &NotFoundError{Resource: "owner", Key: owner}
	}
	return repos, nil
}

func (m *memoryStore) History(ctx context.Context, opts HistoryOptions) ([]types.Record, error) {
	var result []types.Record
	ok := m.dir.View(opts.Owner, opts.Repo, func(r *directory.Repo[types.Record]) {
		switch opts.Tier {
		case TierRecent:
			result = appendlog.Take(r.Log.Recent(), opts.Limit)
		case TierArchive:
			result = appendlog.Take(r.Log.Archive(), opts.Limit)
		default:
			result = appendlog.Take(r.Log.All(), opts.Limit)
		}
	})
	if !ok {
		return nil, &NotFoundError{Resource: "repo", Key: opts.Owner + "/" + opts.Repo}
	}
	return result, nil
}

func (m *memoryStore) Close() error { return nil }
