package places

import (
	"miniregion/internal/domain/restaurant"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

type searchResponse struct {
	Results       []placeResult `json:"results"`
	NextPageToken string        `json:"next_page_token"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location restaurant.LatLng `json:"location"`
	} `json:"geometry"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	UserRatingsTotal int `json:"user_ratings_total"`
}

func (r placeResult) toSummary() restaurant.PlaceSummary {
	summary := restaurant.PlaceSummary{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Address:          r.FormattedAddress,
		Rating:           r.Rating,
		Types:            r.Types,
		Location:         r.Geometry.Location,
		UserRatingsTotal: r.UserRatingsTotal,
	}
	for _, p := range r.Photos {
		summary.Photos = append(summary.Photos, restaurant.Photo{Reference: p.PhotoReference})
	}
	return summary
}

type detailResponse struct {
	Result       detailResult `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
}

type detailResult struct {
	Website              string                   `json:"website"`
	FormattedPhoneNumber string                   `json:"formatted_phone_number"`
	OpeningHours         *restaurant.OpeningHours `json:"opening_hours"`
	Reviews              []restaurant.Review      `json:"reviews"`
}

func (r detailResult) toDetail() restaurant.PlaceDetail {
	detail := restaurant.PlaceDetail{
		OpeningHours: r.OpeningHours,
		Reviews:      r.Reviews,
	}
	if r.Website != "" {
		website := r.Website
		detail.Website = &website
	}
	if r.FormattedPhoneNumber != "" {
		phone := r.FormattedPhoneNumber
		detail.Phone = &phone
	}
	if detail.Reviews == nil {
		detail.Reviews = []restaurant.Review{}
	}
	return detail
}

type autocompleteResponse struct {
	Predictions  []map[string]interface{} `json:"predictions"`
	Status       string                   `json:"status"`
	ErrorMessage string                   `json:"error_message"`
}
