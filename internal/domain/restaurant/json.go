// internal/domain/restaurant/json.go

package restaurant

import (
	"time"

	"github.com/goccy/go-json"
)

// placeJSON is the wire shape of a place. Keys follow the provider so the
// live and stored paths of the restaurants endpoint look the same to clients.
type placeJSON struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Address          string        `json:"formatted_address"`
	Rating           *float64      `json:"rating,omitempty"`
	Types            []string      `json:"types"`
	Geometry         geometryJSON  `json:"geometry"`
	Photos           []Photo       `json:"photos"`
	UserRatingsTotal int           `json:"user_ratings_total"`
	Website          *string       `json:"website"`
	Phone            *string       `json:"formatted_phone_number"`
	OpeningHours     *OpeningHours `json:"openingHours"`
	Reviews          []Review      `json:"reviews"`
	UpdatedAt        *time.Time    `json:"updatedAt,omitempty"`
}

type geometryJSON struct {
	Location LatLng `json:"location"`
}

// MarshalJSON implements json.Marshaler
func (p Place) MarshalJSON() ([]byte, error) {
	w := placeJSON{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		Address:          p.Address,
		Rating:           p.Rating,
		Types:            p.Types,
		Geometry:         geometryJSON{Location: p.Location},
		Photos:           p.Photos,
		UserRatingsTotal: p.UserRatingsTotal,
		Website:          p.Website,
		Phone:            p.Phone,
		OpeningHours:     p.OpeningHours,
		Reviews:          p.Reviews,
	}
	if w.Types == nil {
		w.Types = []string{}
	}
	if w.Photos == nil {
		w.Photos = []Photo{}
	}
	if w.Reviews == nil {
		w.Reviews = []Review{}
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		w.UpdatedAt = &t
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Place) UnmarshalJSON(data []byte) error {
	var w placeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*p = Place{
		PlaceSummary: PlaceSummary{
			PlaceID:          w.PlaceID,
			Name:             w.Name,
			Address:          w.Address,
			Rating:           w.Rating,
			Types:            w.Types,
			Location:         w.Geometry.Location,
			Photos:           w.Photos,
			UserRatingsTotal: w.UserRatingsTotal,
		},
		PlaceDetail: PlaceDetail{
			Website:      w.Website,
			Phone:        w.Phone,
			OpeningHours: w.OpeningHours,
			Reviews:      w.Reviews,
		},
	}
	if w.UpdatedAt != nil {
		p.UpdatedAt = *w.UpdatedAt
	}
	return nil
}
