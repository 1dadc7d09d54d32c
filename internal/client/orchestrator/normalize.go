// internal/client/orchestrator/normalize.go

package orchestrator

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"miniregion/internal/domain/restaurant"
)

// PlaceholderImage is shown when a place has no usable photo
const PlaceholderImage = "https://images.unsplash.com/photo-1517248135467-4c7edcad34c4"

const photoEndpoint = "https://maps.googleapis.com/maps/api/place/photo"

// Normalizer maps server places to display records
type Normalizer struct {
	// PhotoAPIKey builds photo URLs from photo references. Without it those
	// places get the placeholder image.
	PhotoAPIKey string
}

// Normalize converts places to records. Duplicate ids coalesce, the last
// occurrence wins.
func (n Normalizer) Normalize(places []restaurant.Place) []restaurant.Record {
	places = restaurant.Dedupe(places)

	records := make([]restaurant.Record, 0, len(places))
	for _, p := range places {
		records = append(records, n.record(p))
	}
	return records
}

func (n Normalizer) record(p restaurant.Place) restaurant.Record {
	r := restaurant.Record{
		ID:               p.PlaceID,
		Name:             p.Name,
		Address:          p.Address,
		UserRatingsTotal: p.UserRatingsTotal,
		ImageURL:         n.imageURL(p.Photos),
		Category:         categoryLabel(p.Types),
		Website:          p.Website,
		Phone:            p.Phone,
		OpeningHours:     []string{},
		Reviews:          p.Reviews,
		Lat:              p.Location.Lat,
		Lng:              p.Location.Lng,
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.OpeningHours != nil {
		r.OpenNow = p.OpeningHours.OpenNow
		if p.OpeningHours.WeekdayText != nil {
			r.OpeningHours = p.OpeningHours.WeekdayText
		}
	}
	if r.Reviews == nil {
		r.Reviews = []restaurant.Review{}
	}
	return r
}

func (n Normalizer) imageURL(photos []restaurant.Photo) string {
	if len(photos) == 0 {
		return PlaceholderImage
	}
	first := photos[0]
	if first.URL != "" {
		return first.URL
	}
	if first.Reference != "" && n.PhotoAPIKey != "" {
		params := url.Values{}
		params.Set("maxheight", "400")
		params.Set("photoreference", first.Reference)
		params.Set("key", n.PhotoAPIKey)
		return photoEndpoint + "?" + params.Encode()
	}
	return PlaceholderImage
}

var titleCaser = cases.Title(language.Und)

// categoryLabel turns the first provider type into a display label, e.g.
// "meal_takeaway" becomes "Meal Takeaway"
func categoryLabel(types []string) string {
	if len(types) == 0 || types[0] == "" {
		return "Restaurant"
	}
	return titleCaser.String(strings.ReplaceAll(types[0], "_", " "))
}
