package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/onexay/travis-notify/internal/types"
)

const (
	boltRootBucket    = "owners"
	boltRecentBucket  = "recent"
	boltArchiveBucket = "archive"
)

// boltStore keeps the directory as nested buckets:
// owners/<owner>/<repo>/{recent,archive}. Keys are big-endian sequence
// numbers, so cursor order is push order. Entries are only ever moved from
// the front of recent to the back of archive.
type boltStore struct {
	db       *bolt.DB
	once     sync.Once
	clock    func() time.Time
	capacity int
}

// NewBoltStore opens (or creates) a BoltDB file at the provided path.
func NewBoltStore(path string, opts Options) (Store, error) {
	if path == "" {
		return nil, errors.New("bolt path is required")
	}
	opts = opts.withDefaults()

	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(cleaned, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltRootBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &boltStore{db: db, clock: opts.Clock, capacity: opts.RecentLimit}, nil
}

func (s *boltStore) Record(ctx context.Context, owner, repo string, rec types.Record) (RecordResult, error) {
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

	result := RecordResult{Record: rec}
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		recent, archive, err := findCreateTiers(tx, owner, repo)
		if err != nil {
			return err
		}

		seq, err := recent.NextSequence()
		if err != nil {
			return err
		}
		if err := recent.Put(itob(seq), payload); err != nil {
			return err
		}

		// Every archived entry left recent exactly once, so the difference of
		// the two sequences is the recent window size.
		count := int(recent.Sequence() - archive.Sequence())
		for ; count > s.capacity; count-- {
			k, v := recent.Cursor().First()
			key := append([]byte{}, k...)
			val := append([]byte{}, v...)

			aseq, err := archive.NextSequence()
			if err != nil {
				return err
			}
			if err := archive.Put(itob(aseq), val); err != nil {
				return err
			}
			if err := recent.Delete(key); err != nil {
				return err
			}
		}

		result.Recent = count
		result.Archived = int(archive.Sequence())
		return nil
	})
	if err != nil {
		return RecordResult{}, err
	}
	return result, nil
}

func (s *boltStore) EnsureRepo(ctx context.Context, owner, repo string) error {
	if err := validateNames(owner, repo); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		_, _, err := findCreateTiers(tx, owner, repo)
		return err
	})
}

func (s *boltStore) ListOwners(ctx context.Context) ([]string, error) {
	names := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltRootBucket)).ForEach(func(k, v []byte) error {
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	return names, err
}

func (s *boltStore) ListRepos(ctx context.Context, owner string) ([]string, error) {
	names := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		ob := tx.Bucket([]byte(boltRootBucket)).Bucket([]byte(owner))
		if ob == nil {
			return &NotFoundError{Resource: "owner", Key: owner}
		}
		return ob.ForEach(func(k, v []byte) error {
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *boltStore) History(ctx context.Context, opts HistoryOptions) ([]types.Record, error) {
	result := []types.Record{}
	err := s.db.View(func(tx *bolt.Tx) error {
		var rb *bolt.Bucket
		if ob := tx.Bucket([]byte(boltRootBucket)).Bucket([]byte(opts.Owner)); ob != nil {
			rb = ob.Bucket([]byte(opts.Repo))
		}
		if rb == nil {
			return &NotFoundError{Resource: "repo", Key: opts.Owner + "/" + opts.Repo}
		}

		var tiers []string
		switch opts.Tier {
		case TierRecent:
			tiers = []string{boltRecentBucket}
		case TierArchive:
			tiers = []string{boltArchiveBucket}
		default:
			tiers = []string{boltRecentBucket, boltArchiveBucket}
		}

		for _, name := range tiers {
			b := rb.Bucket([]byte(name))
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, v := c.Last(); k != nil; k, v = c.Prev() {
				if opts.Limit > 0 && len(result) >= opts.Limit {
					return nil
				}
				var rec types.Record
				if err := json.Unmarshal(v, &rec); err != nil {
					return fmt.Errorf("decode record in %s/%s: %w", opts.Owner, opts.Repo, err)
				}
				result = append(result, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close shuts down the Bolt DB.
func (s *boltStore) Close() error {
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})
	return err
}

func findCreateTiers(tx *bolt.Tx, owner, repo string) (recent, archive *bolt.Bucket, err error) {
	root := tx.Bucket([]byte(boltRootBucket))
	if root == nil {
		return nil, nil, errors.New("bolt root bucket missing")
	}
	ob, err := root.CreateBucketIfNotExists([]byte(owner))
	if err != nil {
		return nil, nil, err
	}
	rb, err := ob.CreateBucketIfNotExists([]byte(repo))
	if err != nil {
		return nil, nil, err
	}
	if recent, err = rb.CreateBucketIfNotExists([]byte(boltRecentBucket)); err != nil {
		return nil, nil, err
	}
	if archive, err = rb.CreateBucketIfNotExists([]byte(boltArchiveBucket)); err != nil {
		return nil, nil, err
	}
	return recent, archive, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
