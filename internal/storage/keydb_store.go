package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/onexay/travis-notify/internal/types"
)

const (
	ownersKey = "owners"
)

type keydbStore struct {
	client     *redis.Client
	clock      func() time.Time
	capacity   int
	maxRetries int
}

// Config defines KeyDB connection settings.
type Config struct {
	Addr     string `toml:"addr"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database int    `toml:"db"`
}

// NewKeyDBStore initializes a Store backed by KeyDB.
//
// Each repository keeps two lists, newest at the head: recent and archive.
// A push prepends to recent and moves overflow from the tail of recent to
// the head of archive inside one MULTI, guarded by WATCH on recent.
func NewKeyDBStore(cfg Config, opts Options) (Store, error) {
	opts = opts.withDefaults()
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	redisOpts := &redis.Options{
		Addr:     addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.Database,
	}

	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to keydb: %w", err)
	}

	return &keydbStore{
		client:     client,
		clock:      opts.Clock,
		capacity:   opts.RecentLimit,
		maxRetries: opts.MaxRetries,
	}, nil
}

func (s *keydbStore) Record(ctx context.Context, owner, repo string, rec types.Record) (RecordResult, error) {
	if err := validateNames(owner, repo); err != nil {
		return RecordResult{}, err
	}
	rec, err := prepareRecord(rec, s.clock)
	if err != nil {
		return RecordResult{}, err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return RecordResult{}, err
	}

	recentKey := recentKey(owner, repo)
	archiveKey := archiveKey(owner, repo)
	result := RecordResult{Record: rec}

	err = withRetry(ctx, s.maxRetries, owner+"/"+repo, isTxFailed, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.LLen(ctx, recentKey).Result()
			if err != nil {
				return err
			}
			evict := int(current) + 1 - s.capacity

			pipe := tx.TxPipeline()
			pipe.SAdd(ctx, ownersKey, owner)
			pipe.SAdd(ctx, reposKey(owner), repo)
			pipe.LPush(ctx, recentKey, payload)
			for i := 0; i < evict; i++ {
				pipe.LMove(ctx, recentKey, archiveKey, "RIGHT", "LEFT")
			}
			recentLen := pipe.LLen(ctx, recentKey)
			archiveLen := pipe.LLen(ctx, archiveKey)

			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}

			result.Recent = int(recentLen.Val())
			result.Archived = int(archiveLen.Val())
			return nil
		}, recentKey)
	})
	if err != nil {
		return RecordResult{}, err
	}
	return result, nil
}

func (s *keydbStore) EnsureRepo(ctx context.Context, owner, repo string) error {
	if err := validateNames(owner, repo); err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, ownersKey, owner)
	pipe.SAdd(ctx, reposKey(owner), repo)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *keydbStore) ListOwners(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, ownersKey).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (s *keydbStore) ListRepos(ctx context.Context, owner string) ([]string, error) {
	known, err := s.client.SIsMember(ctx, ownersKey, owner).Result()
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, &NotFoundError{Resource: "owner", Key: owner}
	}
	names, err := s.client.SMembers(ctx, reposKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (s *keydbStore) History(ctx context.Context, opts HistoryOptions) ([]types.Record, error) {
	known, err := s.client.SIsMember(ctx, reposKey(opts.Owner), opts.Repo).Result()
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, &NotFoundError{Resource: "repo", Key: opts.Owner + "/" + opts.Repo}
	}

	end := int64(-1)
	if opts.Limit > 0 {
		end = int64(opts.Limit) - 1
	}

	// Read both lists in one MULTI so a concurrent eviction cannot move an
	// entry between the two reads.
	pipe := s.client.TxPipeline()
	var recent, archive *redis.StringSliceCmd
	if opts.Tier != TierArchive {
		recent = pipe.LRange(ctx, recentKey(opts.Owner, opts.Repo), 0, end)
	}
	if opts.Tier != TierRecent {
		archive = pipe.LRange(ctx, archiveKey(opts.Owner, opts.Repo), 0, end)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var raw []string
	if recent != nil {
		raw = append(raw, recent.Val()...)
	}
	if archive != nil {
		raw = append(raw, archive.Val()...)
	}
	if opts.Limit > 0 && len(raw) > opts.Limit {
		raw = raw[:opts.Limit]
	}

	result := make([]types.Record, 0, len(raw))
	for _, item := range raw {
		var rec types.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode record in %s/%s: %w", opts.Owner, opts.Repo, err)
		}
		result = append(result, rec)
	}
	return result, nil
}

func (s *keydbStore) Close() error {
	return s.client.Close()
}

func isTxFailed(err error) bool {
	return errors.Is(err, redis.TxFailedErr)
}

func reposKey(owner string) string {
	return fmt.Sprintf("repos:%s", owner)
}

func recentKey(owner, repo string) string {
	return fmt.Sprintf("recent:%s/%s", owner, repo)
}

func archiveKey(owner, repo string) string {
	return fmt.Sprintf("archive:%s/%s", owner, repo)
}
