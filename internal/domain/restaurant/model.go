// internal/domain/restaurant/model.go

package restaurant

import (
	"time"
)

// LatLng is a geographic point in degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Photo references a provider photo. URL is set when the provider returned a
// direct link, Reference when only a photo key is known.
type Photo struct {
	Reference string `json:"photo_reference,omitempty"`
	URL       string `json:"url,omitempty"`
}

// PlaceSummary is a single search hit as returned by the place provider
type PlaceSummary struct {
	PlaceID          string
	Name             string
	Address          string
	Rating           *float64
	Types            []string
	Location         LatLng
	Photos           []Photo
	UserRatingsTotal int
}

// OpeningHours holds the weekly schedule of a place
type OpeningHours struct {
	WeekdayText []string `json:"weekday_text"`
	OpenNow     bool     `json:"open_now"`
}

// Review is a single user review attached to a place
type Review struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}

// PlaceDetail holds the enrichment fields fetched per place
type PlaceDetail struct {
	Website      *string
	Phone        *string
	OpeningHours *OpeningHours
	Reviews      []Review
}

// EmptyDetail is the detail substituted when enrichment fails
func EmptyDetail() PlaceDetail {
	return PlaceDetail{Reviews: []Review{}}
}

// Place is a search hit merged with its detail. It is the shape persisted by
// the server and served to clients.
type Place struct {
	PlaceSummary
	PlaceDetail
	UpdatedAt time.Time
}

// Merge combines a summary with its detail into a new place
func Merge(summary PlaceSummary, detail PlaceDetail) Place {
	s := summary
	s.Types = append([]string(nil), summary.Types...)
	s.Photos = append([]Photo(nil), summary.Photos...)
	if detail.Reviews == nil {
		detail.Reviews = []Review{}
	}
	return Place{PlaceSummary: s, PlaceDetail: detail}
}

// Record is the normalized restaurant entity consumed by the presentation
// layer. ID is the provider place identifier and the only merge key.
type Record struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Address          string   `json:"address"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	OpenNow          bool     `json:"openNow"`
	ImageURL         string   `json:"imageUrl"`
	Category         string   `json:"type"`
	Website          *string  `json:"website"`
	Phone            *string  `json:"phone"`
	OpeningHours     []string `json:"openingHours"`
	Reviews          []Review `json:"reviews"`
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
}

// CacheEntry is the last successful normalized result set plus its capture time
type CacheEntry struct {
	Records   []Record  `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Dedupe keeps one place per identifier. The last occurrence wins and takes
// the position of the first one.
func Dedupe(places []Place) []Place {
	index := make(map[string]int, len(places))
	out := make([]Place, 0, len(places))
	for _, p := range places {
		if i, ok := index[p.PlaceID]; ok {
			out[i] = p
			continue
		}
		index[p.PlaceID] = len(out)
		out = append(out, p)
	}
	return out
}
