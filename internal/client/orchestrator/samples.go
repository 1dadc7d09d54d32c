// internal/client/orchestrator/samples.go

package orchestrator

import (
	"miniregion/internal/domain/restaurant"
)

func strPtr(s string) *string { return &s }

// SampleRecords returns the built-in records shown when no live data can be
// loaded. Each call returns a fresh copy.
func SampleRecords() []restaurant.Record {
	return []restaurant.Record{
		{
			ID:               "1",
			Name:             "La Calma Pizzeria",
			Address:          "Bahnhofstrasse 12, Chur",
			Rating:           4.7,
			UserRatingsTotal: 120,
			OpenNow:          true,
			ImageURL:         "https://images.unsplash.com/photo-1513104890138-7c749659a584",
			Category:         "Pizza",
			Website:          strPtr("https://example.com/pizza"),
			OpeningHours:     []string{},
			Reviews:          []restaurant.Review{},
			Lat:              46.8499,
			Lng:              9.5320,
		},
		{
			ID:               "2",
			Name:             "Bergblick Stübli",
			Address:          "Dorfstrasse 45, Lenzerheide",
			Rating:           4.3,
			UserRatingsTotal: 85,
			OpenNow:          false,
			ImageURL:         "https://images.unsplash.com/photo-1552566626-52f8b828add9",
			Category:         "Regional",
			Website:          strPtr("https://example.com/regional"),
			OpeningHours:     []string{},
			Reviews:          []restaurant.Review{},
			Lat:              46.7272,
			Lng:              9.5579,
		},
		{
			ID:               "3",
			Name:             "Sushi Heaven",
			Address:          "Poststrasse 8, Davos",
			Rating:           4.8,
			UserRatingsTotal: 150,
			OpenNow:          true,
			ImageURL:         "https://images.unsplash.com/photo-1579871494447-9811cf80d66c",
			Category:         "Sushi",
			Website:          strPtr("https://example.com/sushi"),
			OpeningHours:     []string{},
			Reviews:          []restaurant.Review{},
			Lat:              46.8043,
			Lng:              9.8370,
		},
		{
			ID:               "4",
			Name:             "Vegan Delight",
			Address:          "Grabenstrasse 5, Chur",
			Rating:           4.5,
			UserRatingsTotal: 90,
			OpenNow:          true,
			ImageURL:         "https://images.unsplash.com/photo-1540189549336-e6e99c3679fe",
			Category:         "Vegan",
			Website:          strPtr("https://example.com/vegan"),
			OpeningHours:     []string{},
			Reviews:          []restaurant.Review{},
			Lat:              46.8499,
			Lng:              9.5320,
		},
	}
}
