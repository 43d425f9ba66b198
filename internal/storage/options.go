package storage

import (
	"time"

	"github.com/onexay/travis-notify/internal/appendlog"
)

// Options control storage behaviour across backends.
type Options struct {
	// RecentLimit is the size of each repository's recent window.
	RecentLimit int
	// MaxRetries is how many times a conflicting transaction is retried after
	// the first attempt.
	MaxRetries int
	Clock      func() time.Time
}

const defaultMaxRetries = 5

func (o Options) withDefaults() Options {
	if o.RecentLimit < 0 {
		o.RecentLimit = appendlog.DefaultCapacity
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
