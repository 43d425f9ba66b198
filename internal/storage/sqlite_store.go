package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/onexay/travis-notify/internal/types"
)

//go:embed schema.sql
var schemaSQL string

type sqliteStore struct {
	db         *sql.DB
	clock      func() time.Time
	capacity   int
	maxRetries int
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
func NewSQLiteStore(path string, opts Options) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	opts = opts.withDefaults()

	if path != ":memory:" {
		if dir := filepath.Dir(filepath.Clean(path)); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &sqliteStore{
		db:         db,
		clock:      opts.Clock,
		capacity:   opts.RecentLimit,
		maxRetries: opts.MaxRetries,
	}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *sqliteStore) Record(ctx context.Context, owner, repo string, rec types.Record) (RecordResult, error) {
	if err := validateNames(owner, repo); err != nil {
		return RecordResult{}, err
	}
	rec, err := prepareRecord(rec, s.clock)
	if err != nil {
		return RecordResult{}, err
	}

	result := RecordResult{Record: rec}
	err = withRetry(ctx, s.maxRetries, owner+"/"+repo, isBusy, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			if err := ensureRepoTx(ctx, tx, owner, repo); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO records (owner, repo, tier, record_id, received_at, payload)
				VALUES (?, ?, 'recent', ?, ?, ?)
			`, owner, repo, rec.ID, rec.ReceivedAt.Format(time.RFC3339Nano), []byte(rec.Payload)); err != nil {
				return err
			}

			// everything past the newest capacity recent rows moves to archive
			if _, err := tx.ExecContext(ctx, `
				UPDATE records SET tier = 'archive'
				WHERE seq IN (
					SELECT seq FROM records
					WHERE owner = ? AND repo = ? AND tier = 'recent'
					ORDER BY seq DESC
					LIMIT -1 OFFSET ?
				)
			`, owner, repo, s.capacity); err != nil {
				return err
			}

			rows, err := tx.QueryContext(ctx, `
				SELECT tier, COUNT(*) FROM records
				WHERE owner = ? AND repo = ?
				GROUP BY tier
			`, owner, repo)
			if err != nil {
				return err
			}
			defer rows.Close()

			result.Recent, result.Archived = 0, 0
			for rows.Next() {
				var tier string
				var n int
				if err := rows.Scan(&tier, &n); err != nil {
					return err
				}
				if Tier(tier) == TierRecent {
					result.Recent = n
				} else {
					result.Archived = n
				}
			}
			return rows.Err()
		})
	})
	if err != nil {
		return RecordResult{}, err
	}
	return result, nil
}

func (s *sqliteStore) EnsureRepo(ctx context.Context, owner, repo string) error {
	if err := validateNames(owner, repo); err != nil {
		return err
	}
	return withRetry(ctx, s.maxRetries, owner+"/"+repo, isBusy, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return ensureRepoTx(ctx, tx, owner, repo)
		})
	})
}

func (s *sqliteStore) ListOwners(ctx context.Context) ([]string, error) {
	return s.queryNames(ctx, `SELECT name FROM owners ORDER BY name`)
}

func (s *sqliteStore) ListRepos(ctx context.Context, owner string) ([]string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM owners WHERE name = ?`, owner).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "owner", Key: owner}
	}
	if err != nil {
		return nil, err
	}
	return s.queryNames(ctx, `SELECT name FROM repos WHERE owner = ? ORDER BY name`, owner)
}

func (s *sqliteStore) History(ctx context.Context, opts HistoryOptions) ([]types.Record, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM repos WHERE owner = ? AND name = ?`, opts.Owner, opts.Repo).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "repo", Key: opts.Owner + "/" + opts.Repo}
	}
	if err != nil {
		return nil, err
	}

	query := `SELECT record_id, received_at, payload FROM records WHERE owner = ? AND repo = ?`
	args := []any{opts.Owner, opts.Repo}
	if opts.Tier == TierRecent || opts.Tier == TierArchive {
		query += ` AND tier = ?`
		args = append(args, string(opts.Tier))
	}
	query += ` ORDER BY seq DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []types.Record{}
	for rows.Next() {
		var (
			rec        types.Record
			receivedAt string
			payload    []byte
		)
		if err := rows.Scan(&rec.ID, &receivedAt, &payload); err != nil {
			return nil, err
		}
		if rec.ReceivedAt, err = time.Parse(time.RFC3339Nano, receivedAt); err != nil {
			return nil, fmt.Errorf("parse received_at of %s: %w", rec.ID, err)
		}
		rec.Payload = payload
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func ensureRepoTx(ctx context.Context, tx *sql.Tx, owner, repo string) error {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO owners (name) VALUES (?)`, owner); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO repos (owner, name) VALUES (?, ?)`, owner, repo)
	return err
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
