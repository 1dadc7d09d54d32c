// Package listing filters and sorts restaurant records for display. Every
// function here is pure: inputs are never modified.
package listing

import (
	"math"
	"sort"
	"strings"

	"miniregion/internal/domain/restaurant"
)

// SortKey selects the ordering of a listing
type SortKey string

// Sort keys
const (
	SortRating   SortKey = "rating"
	SortDistance SortKey = "distance"
	SortName     SortKey = "name"
)

// ParseSortKey returns the sort key for s, defaulting to rating
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(s)) {
	case SortDistance:
		return SortDistance
	case SortName:
		return SortName
	default:
		return SortRating
	}
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points
func DistanceKm(a, b restaurant.LatLng) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Apply filters records by a case-insensitive substring of name, address or
// category and sorts the result. Distance sorting without a location keeps
// the filtered order. Equal keys keep their relative order.
func Apply(records []restaurant.Record, filter string, key SortKey, loc *restaurant.LatLng) []restaurant.Record {
	out := make([]restaurant.Record, 0, len(records))

	needle := strings.ToLower(strings.TrimSpace(filter))
	for _, r := range records {
		if needle == "" ||
			strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.Address), needle) ||
			strings.Contains(strings.ToLower(r.Category), needle) {
			out = append(out, r)
		}
	}

	switch key {
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Rating > out[j].Rating
		})
	case SortDistance:
		if loc == nil {
			break
		}
		dist := make(map[string]float64, len(out))
		for _, r := range out {
			dist[r.ID] = DistanceKm(*loc, restaurant.LatLng{Lat: r.Lat, Lng: r.Lng})
		}
		sort.SliceStable(out, func(i, j int) bool {
			return dist[out[i].ID] < dist[out[j].ID]
		})
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}

	return out
}
