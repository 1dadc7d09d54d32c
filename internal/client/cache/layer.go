// internal/client/cache/layer.go

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"miniregion/internal/domain/restaurant"
)

// Key is the local store key of the cached result set
const Key = "cached_restaurants_data"

// DefaultTTL is the freshness window of a cache entry
const DefaultTTL = 24 * time.Hour

// KV is the persistent key/value store backing the cache
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Layer persists the last successful normalized result set with its capture
// time. There is one entry; every write replaces it.
type Layer struct {
	kv  KV
	ttl time.Duration
	now func() time.Time
	log zerolog.Logger
}

// Option configures a Layer
type Option func(*Layer)

// WithClock replaces the wall clock, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(l *Layer) { l.now = now }
}

// WithTTL overrides the freshness window
func WithTTL(ttl time.Duration) Option {
	return func(l *Layer) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// NewLayer creates a cache layer over kv
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLayer(kv KV, log zerolog.Logger, opts ...Option) *Layer {
	l := &Layer{
		kv:  kv,
		ttl: DefaultTTL,
		now: time.Now,
		log: log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Read returns the stored entry, or nil when there is none. An undecodable
// entry is logged and treated as absent.
func (l *Layer) Read(ctx context.Context) (*restaurant.CacheEntry, error) {
	data, ok, err := l.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("error reading cache: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var entry restaurant.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		l.log.Warn().Err(err).Msg("ignoring undecodable cache entry")
		return nil, nil
	}
	return &entry, nil
}

// Write replaces the entry with records stamped with the current time
func (l *Layer) Write(ctx context.Context, records []restaurant.Record) error {
	if records == nil {
		records = []restaurant.Record{}
	}

	data, err := json.Marshal(restaurant.CacheEntry{
		Records:   records,
		Timestamp: l.now(),
	})
	if err != nil {
		return fmt.Errorf("error encoding cache entry: %w", err)
	}

	if err := l.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("error writing cache: %w", err)
	}
	return nil
}

// IsFresh reports whether entry is within the freshness window. An entry
// exactly ttl old is still fresh.
func (l *Layer) IsFresh(entry *restaurant.CacheEntry) bool {
	if entry == nil {
		return false
	}
	return l.now().Sub(entry.Timestamp) <= l.ttl
}

// ReadFresh returns the stored entry when it is fresh, otherwise nil. A stale
// entry is left in place.
func (l *Layer) ReadFresh(ctx context.Context) (*restaurant.CacheEntry, error) {
	entry, err := l.Read(ctx)
	if err != nil || !l.IsFresh(entry) {
		return nil, err
	}
	return entry, nil
}
