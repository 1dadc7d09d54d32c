// internal/domain/restaurant/service.go

package restaurant

import (
	"context"
)

// SearchRequest describes one text search against the place provider
type SearchRequest struct {
	Query        string
	Location     *LatLng
	RadiusMeters int
	PageToken    string
}

// SearchPage is one page of search results
type SearchPage struct {
	Results       []PlaceSummary
	NextPageToken string
}

// Searcher issues text searches against the place provider
type Searcher interface {
	TextSearch(ctx context.Context, req SearchRequest) (SearchPage, error)
}

// DetailFetcher fetches enrichment fields for one place
type DetailFetcher interface {
	Details(ctx context.Context, placeID string) (PlaceDetail, error)
}

// Store persists places keyed by place identifier
type Store interface {
	// UpsertPlaces inserts or fully overwrites each place by its identifier
	UpsertPlaces(ctx context.Context, places []Place) error

	// ListPlaces returns up to limit stored places
	ListPlaces(ctx context.Context, limit int) ([]Place, error)
}
