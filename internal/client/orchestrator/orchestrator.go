// internal/client/orchestrator/orchestrator.go

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"miniregion/internal/client/backend"
	"miniregion/internal/client/listing"
	"miniregion/internal/client/policy"
	"miniregion/internal/domain/restaurant"
)

// LocationKey is the local store key of the last known user position
const LocationKey = "user_location"

// State is the phase of the fetch state machine
type State int

// Fetch states
const (
	Idle State = iota
	RateLimited
	InFlight
	Succeeded
	FailedWithFallback
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RateLimited:
		return "rate_limited"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case FailedWithFallback:
		return "failed_with_fallback"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source tells where the currently published records came from
type Source string

// Record sources
const (
	SourceNone   Source = ""
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
	SourceSample Source = "sample"
)

// Remote fetches places from the proxy server
type Remote interface {
	Restaurants(ctx context.Context, q backend.RestaurantQuery) ([]restaurant.Place, error)
}

// Cache persists the last successful record set
type Cache interface {
	ReadFresh(ctx context.Context) (*restaurant.CacheEntry, error)
	Write(ctx context.Context, records []restaurant.Record) error
}

// KV stores small values such as the last user location
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Locator resolves the current device position
type Locator interface {
	Locate(ctx context.Context) (restaurant.LatLng, error)
}

// Notifier receives record updates and user-facing notices
type Notifier interface {
	Update(records []restaurant.Record, source Source)
	Notice(message string)
}

// Fetch policy defaults
const (
	DefaultMinSpacing = time.Second
	DefaultDebounce   = time.Second
)

// DefaultRetry is three attempts with backoff starting at one second
func DefaultRetry() policy.Retry {
	return policy.Retry{Attempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// Config tunes the orchestrator. Zero fields take the defaults above.
type Config struct {
	Region       string
	NearbyRadius int
	PhotoAPIKey  string
	MinSpacing   time.Duration
	Debounce     time.Duration
	Retry        policy.Retry
	UseNearby    bool
}

// Orchestrator drives restaurant fetches for the presentation layer. At most
// one fetch runs at a time and fetches closer together than the minimum
// spacing are dropped.
type Orchestrator struct {
	remote     Remote
	cache      Cache
	kv         KV
	locator    Locator
	notifier   Notifier
	normalizer Normalizer
	gate       *policy.Gate
	minSpacing time.Duration
	debouncer  *policy.Debouncer
	retry      policy.Retry
	region     string
	radius     int
	log        zerolog.Logger

	busy atomic.Bool

	mu        sync.RWMutex
	state     State
	records   []restaurant.Record
	source    Source
	location  *restaurant.LatLng
	useNearby bool
}

// Option customizes an orchestrator
type Option func(*Orchestrator)

// WithClock replaces the clock used by the rate gate
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.gate = policy.NewGate(o.minSpacing, now)
	}
}

// WithLocator sets the position source used by Start
func WithLocator(l Locator) Option {
	return func(o *Orchestrator) {
		o.locator = l
	}
}

// New creates an orchestrator. notifier may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(remote Remote, cache Cache, kv KV, notifier Notifier, cfg Config, log zerolog.Logger, opts ...Option) *Orchestrator {
	if cfg.MinSpacing <= 0 {
		cfg.MinSpacing = DefaultMinSpacing
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = DefaultRetry()
	}
	if cfg.NearbyRadius <= 0 {
		cfg.NearbyRadius = 50000
	}
	if cfg.Region == "" {
		cfg.Region = "Switzerland"
	}
	cfg.Retry.Log = log

	o := &Orchestrator{
		remote:     remote,
		cache:      cache,
		kv:         kv,
		notifier:   notifier,
		normalizer: Normalizer{PhotoAPIKey: cfg.PhotoAPIKey},
		gate:       policy.NewGate(cfg.MinSpacing, nil),
		minSpacing: cfg.MinSpacing,
		debouncer:  policy.NewDebouncer(cfg.Debounce),
		retry:      cfg.Retry,
		region:     cfg.Region,
		radius:     cfg.NearbyRadius,
		log:        log,
		useNearby:  cfg.UseNearby,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start publishes a fresh cache when one exists. Otherwise it resolves the
// user position and runs an initial fetch, nearby when a position is known.
func (o *Orchestrator) Start(ctx context.Context) State {
	o.loadLocation(ctx)

	entry, err := o.cache.ReadFresh(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("failed to read restaurant cache")
	}
	if entry != nil {
		o.log.Info().
			Int("count", len(entry.Records)).
			Time("captured_at", entry.Timestamp).
			Msg("using cached restaurants")
		o.publish(entry.Records, SourceCache)
		return Succeeded
	}

	if o.locator == nil {
		return o.Fetch(ctx, "")
	}

	loc, err := o.locator.Locate(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("location unavailable")
		o.notice("Location unavailable. Showing restaurants for the whole region.")
		o.SetNearby(false)
		return o.Fetch(ctx, "")
	}

	o.setLocation(ctx, loc)
	o.SetNearby(true)
	return o.Fetch(ctx, "")
}

// Fetch runs one fetch for query and returns the state it ended in.
// InFlight and RateLimited mean the call was dropped without a request.
func (o *Orchestrator) Fetch(ctx context.Context, query string) State {
	if !o.busy.CompareAndSwap(false, true) {
		o.log.Debug().Str("query", query).Msg("fetch dropped, another fetch is in flight")
		return InFlight
	}
	defer o.busy.Store(false)

	// The spacing window is only taken by a fetch that will dispatch
	if !o.gate.Allow() {
		o.log.Debug().Str("query", query).Msg("fetch dropped, too soon after the previous one")
		return RateLimited
	}

	o.setState(InFlight)
	defer o.setState(Idle)

	q := o.buildQuery(query)
	logger := o.log.With().Str("query", q.Text).Logger()

	var places []restaurant.Place
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		places, err = o.remote.Restaurants(ctx, q)
		return err
	})
	if err != nil {
		kind := Classify(err)
		logger.Error().Err(err).Str("failure", string(kind)).Msg("failed to fetch restaurants")
		o.fallback(kind.Message())
		return FailedWithFallback
	}

	records := o.normalizer.Normalize(places)
	if len(records) == 0 {
		logger.Info().Msg("no restaurants returned")
		o.fallback("No restaurants found. Showing sample data.")
		return FailedWithFallback
	}

	if err := o.cache.Write(ctx, records); err != nil {
		logger.Warn().Err(err).Msg("failed to write restaurant cache")
	}

	logger.Info().Int("count", len(records)).Msg("restaurants loaded")
	o.publish(records, SourceRemote)
	return Succeeded
}

// Search schedules a debounced fetch for query. Only the last call within the
// debounce window runs.
func (o *Orchestrator) Search(ctx context.Context, query string) {
	o.debouncer.Call(func() {
		o.Fetch(ctx, query)
	})
}

// Close cancels a pending debounced search
func (o *Orchestrator) Close() {
	o.debouncer.Stop()
}

// SetNearby toggles location-biased queries
func (o *Orchestrator) SetNearby(enabled bool) {
	o.mu.Lock()
	o.useNearby = enabled
	o.mu.Unlock()
}

// State returns the current state
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Records returns the currently published records and where they came from
func (o *Orchestrator) Records() ([]restaurant.Record, Source) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]restaurant.Record(nil), o.records...), o.source
}

// Location returns the last known user position, if any
func (o *Orchestrator) Location() *restaurant.LatLng {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.location == nil {
		return nil
	}
	loc := *o.location
	return &loc
}

// View filters and sorts the published records for display
func (o *Orchestrator) View(filter string, key listing.SortKey) []restaurant.Record {
	records, _ := o.Records()
	return listing.Apply(records, filter, key, o.Location())
}

func (o *Orchestrator) buildQuery(query string) backend.RestaurantQuery {
	o.mu.RLock()
	nearby := o.useNearby
	var loc *restaurant.LatLng
	if o.location != nil {
		l := *o.location
		loc = &l
	}
	o.mu.RUnlock()

	var q backend.RestaurantQuery
	query = strings.TrimSpace(query)
	switch {
	case query != "":
		q.Text = "restaurants in " + query
	case nearby && loc != nil:
		q.Text = fmt.Sprintf("restaurants near %g,%g", loc.Lat, loc.Lng)
	default:
		q.Text = "restaurants in " + o.region
	}

	if nearby && loc != nil {
		q.Lat = &loc.Lat
		q.Lng = &loc.Lng
		q.Radius = o.radius
	}
	return q
}

// fallback publishes the sample records. They are never cached.
func (o *Orchestrator) fallback(message string) {
	o.publish(SampleRecords(), SourceSample)
	o.notice(message)
}

func (o *Orchestrator) publish(records []restaurant.Record, source Source) {
	o.mu.Lock()
	o.records = records
	o.source = source
	o.mu.Unlock()

	if o.notifier != nil {
		o.notifier.Update(append([]restaurant.Record(nil), records...), source)
	}
}

func (o *Orchestrator) notice(message string) {
	if o.notifier != nil {
		o.notifier.Notice(message)
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) loadLocation(ctx context.Context) {
	if o.kv == nil {
		return
	}
	raw, ok, err := o.kv.Get(ctx, LocationKey)
	if err != nil || !ok {
		return
	}
	var loc restaurant.LatLng
	if err := json.Unmarshal(raw, &loc); err != nil {
		o.log.Warn().Err(err).Msg("ignoring undecodable stored location")
		return
	}
	o.mu.Lock()
	o.location = &loc
	o.mu.Unlock()
}

func (o *Orchestrator) setLocation(ctx context.Context, loc restaurant.LatLng) {
	o.mu.Lock()
	o.location = &loc
	o.mu.Unlock()

	if o.kv == nil {
		return
	}
	raw, err := json.Marshal(loc)
	if err == nil {
		err = o.kv.Set(ctx, LocationKey, raw)
	}
	if err != nil {
		o.log.Warn().Err(err).Msg("failed to store user location")
	}
}
