// internal/service/enrich/fanout.go

package enrich

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"miniregion/internal/domain/restaurant"
	"miniregion/internal/metrics"
)

// MaxBatch caps how many places one invocation enriches
const MaxBatch = 20

// Result is the outcome of enriching one place. Err is set when the detail
// lookup failed and the place carries default (empty) detail fields.
type Result struct {
	Place restaurant.Place
	Err   error
}

// Defaulted reports whether the detail fields are the failure defaults
func (r Result) Defaulted() bool {
	return r.Err != nil
}

// Fanout enriches search hits with per-place details concurrently
type Fanout struct {
	details restaurant.DetailFetcher
	log     zerolog.Logger
}

// NewFanout creates a new fan-out over a detail fetcher
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewFanout(details restaurant.DetailFetcher, log zerolog.Logger) *Fanout {
	return &Fanout{
		details: details,
		log:     log,
	}
}

// Enrich fetches details for every summary and merges them. It returns only
// after every lookup resolved; results keep the input order. A failed lookup
// never fails the batch, the place gets empty detail fields instead.
func (f *Fanout) Enrich(ctx context.Context, summaries []restaurant.PlaceSummary) []Result {
	if len(summaries) > MaxBatch {
		f.log.Warn().
			Int("received", len(summaries)).
			Int("max", MaxBatch).
			Msg("enrichment batch truncated")
		summaries = summaries[:MaxBatch]
	}

	results := make([]Result, len(summaries))

	var g errgroup.Group
	for i, summary := range summaries {
		g.Go(func() error {
			results[i] = f.enrichOne(ctx, summary)
			return nil // never fail the group, errors are kept per item
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fanout) enrichOne(ctx context.Context, summary restaurant.PlaceSummary) Result {
	detail, err := f.details.Details(ctx, summary.PlaceID)
	if err != nil {
		f.log.Error().
			Err(err).
			Str("place_id", summary.PlaceID).
			Str("name", summary.Name).
			Msg("error loading place details")
		metrics.RecordEnrichment(true)
		return Result{
			Place: restaurant.Merge(summary, restaurant.EmptyDetail()),
			Err:   err,
		}
	}

	metrics.RecordEnrichment(false)
	return Result{Place: restaurant.Merge(summary, detail)}
}

// Places extracts the merged places from results
func Places(results []Result) []restaurant.Place {
	places := make([]restaurant.Place, len(results))
	for i, r := range results {
		places[i] = r.Place
	}
	return places
}
