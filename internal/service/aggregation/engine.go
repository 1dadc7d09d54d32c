// internal/service/aggregation/engine.go

package aggregation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"miniregion/internal/domain/restaurant"
	"miniregion/internal/metrics"
	"miniregion/internal/service/enrich"
)

// Triggers recorded with each run
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// Publisher publishes refresh notifications. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// EngineConfig contains configuration for the aggregation engine
type EngineConfig struct {
	Region         string
	MaxPages       int
	PageDelay      time.Duration
	SearchRadius   int
	RefreshSubject string
}

// RunStats summarizes a completed aggregation run
type RunStats struct {
	Fetched    int       `json:"fetched"`
	Defaulted  int       `json:"defaulted"`
	Upserted   int       `json:"count"`
	FinishedAt time.Time `json:"finished_at"`
}

// RefreshedEvent is published after a successful run
type RefreshedEvent struct {
	Count      int       `json:"count"`
	FinishedAt time.Time `json:"finished_at"`
}

// Engine searches the place provider, enriches every hit and upserts the
// merged places keyed by place id
type Engine struct {
	searcher  restaurant.Searcher
	fanout    *enrich.Fanout
	store     restaurant.Store
	publisher Publisher
	config    EngineConfig
	log       zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a new aggregation engine. publisher may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(
	searcher restaurant.Searcher,
	fanout *enrich.Fanout,
	store restaurant.Store,
	publisher Publisher,
	config EngineConfig,
	log zerolog.Logger,
) *Engine {
	if config.Region == "" {
		config.Region = "Graubünden"
	}
	if config.MaxPages < 1 {
		config.MaxPages = 1
	}
	if config.RefreshSubject == "" {
		config.RefreshSubject = "restaurants.refreshed"
	}

	return &Engine{
		searcher:  searcher,
		fanout:    fanout,
		store:     store,
		publisher: publisher,
		config:    config,
		log:       log,
		sleep:     sleepContext,
	}
}

// Query returns the canonical regional search query
func (e *Engine) Query() string {
	return "restaurants in " + e.config.Region
}

// Run refreshes the stored restaurants from the provider
func (e *Engine) Run(ctx context.Context) (RunStats, error) {
	return e.run(ctx, TriggerManual)
}

func (e *Engine) run(ctx context.Context, trigger string) (RunStats, error) {
	start := time.Now()
	log := e.log.With().Str("trigger", trigger).Logger()
	log.Info().Str("query", e.Query()).Msg("starting restaurant refresh")

	stats, err := e.refresh(ctx)
	metrics.RecordAggregationRun(trigger, time.Since(start), stats.Upserted, err)
	if err != nil {
		log.Error().Err(err).Msg("restaurant refresh failed")
		return stats, err
	}

	log.Info().
		Int("fetched", stats.Fetched).
		Int("defaulted", stats.Defaulted).
		Int("upserted", stats.Upserted).
		Dur("duration", time.Since(start)).
		Msg("restaurant refresh complete")

	e.publish(stats)
	return stats, nil
}

func (e *Engine) refresh(ctx context.Context) (RunStats, error) {
	var stats RunStats
	var places []restaurant.Place

	req := restaurant.SearchRequest{Query: e.Query()}
	for page := 1; page <= e.config.MaxPages; page++ {
		if page > 1 {
			// Page tokens only become valid after a short delay
			if err := e.sleep(ctx, e.config.PageDelay); err != nil {
				return stats, err
			}
		}

		result, err := e.searcher.TextSearch(ctx, req)
		if err != nil {
			return stats, fmt.Errorf("error searching page %d: %w", page, err)
		}

		results := e.fanout.Enrich(ctx, result.Results)
		for _, r := range results {
			if r.Defaulted() {
				stats.Defaulted++
			}
		}
		stats.Fetched += len(results)
		places = append(places, enrich.Places(results)...)

		if result.NextPageToken == "" {
			break
		}
		req = restaurant.SearchRequest{PageToken: result.NextPageToken}
	}

	places = restaurant.Dedupe(places)
	if len(places) > 0 {
		now := time.Now()
		for i := range places {
			places[i].UpdatedAt = now
		}
		if err := e.store.UpsertPlaces(ctx, places); err != nil {
			return stats, fmt.Errorf("error upserting places: %w", err)
		}
	}

	stats.Upserted = len(places)
	stats.FinishedAt = time.Now()
	return stats, nil
}

// Live runs search and enrichment for an ad hoc query without persisting.
// Only the first result page is used. An empty query falls back to the
// regional query.
func (e *Engine) Live(ctx context.Context, query string, location *restaurant.LatLng) ([]restaurant.Place, error) {
	if strings.TrimSpace(query) == "" {
		query = e.Query()
	}

	req := restaurant.SearchRequest{Query: query}
	if location != nil {
		req.Location = location
		req.RadiusMeters = e.config.SearchRadius
	}

	page, err := e.searcher.TextSearch(ctx, req)
	if err != nil {
		return nil, err
	}

	return restaurant.Dedupe(enrich.Places(e.fanout.Enrich(ctx, page.Results))), nil
}

func (e *Engine) publish(stats RunStats) {
	if e.publisher == nil {
		return
	}

	data, err := json.Marshal(RefreshedEvent{Count: stats.Upserted, FinishedAt: stats.FinishedAt})
	if err != nil {
		e.log.Error().Err(err).Msg("error marshaling refresh event")
		return
	}

	if err := e.publisher.Publish(e.config.RefreshSubject, data); err != nil {
		e.log.Warn().Err(err).Str("subject", e.config.RefreshSubject).Msg("error publishing refresh event")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
