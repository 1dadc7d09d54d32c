// internal/server/handlers/restaurant.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"miniregion/internal/domain/restaurant"
	"miniregion/internal/service/aggregation"
)

// storedLimit caps the stored records returned without a query
const storedLimit = 20

// Aggregator runs the search and enrichment pipeline
type Aggregator interface {
	Run(ctx context.Context) (aggregation.RunStats, error)
	Live(ctx context.Context, query string, location *restaurant.LatLng) ([]restaurant.Place, error)
}

// Autocompleter returns place predictions for partial input
type Autocompleter interface {
	Autocomplete(ctx context.Context, input string) ([]map[string]interface{}, error)
}

// RestaurantHandler handles restaurant-related HTTP requests
type RestaurantHandler struct {
	engine   Aggregator
	places   Autocompleter
	store    restaurant.Store
	validate *validator.Validate
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(engine Aggregator, places Autocompleter, store restaurant.Store) *RestaurantHandler {
	return &RestaurantHandler{
		engine:   engine,
		places:   places,
		store:    store,
		validate: newValidator(),
	}
}

type restaurantQuery struct {
	Query string   `json:"query" validate:"max=100"`
	Lat   *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng   *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

// location returns the bias point when both coordinates are present
func (q restaurantQuery) location() *restaurant.LatLng {
	if q.Lat == nil || q.Lng == nil {
		return nil
	}
	return &restaurant.LatLng{Lat: *q.Lat, Lng: *q.Lng}
}

// GetRestaurants returns live results for a query or location, otherwise the
// stored restaurants
func (h *RestaurantHandler) GetRestaurants(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		var verr *restaurant.ValidationError
		if errors.As(err, &verr) {
			respondWithValidationError(w, verr)
			return
		}
		respondWithError(w, r, http.StatusInternalServerError, "Failed to validate request", err)
		return
	}

	loc := q.location()
	if q.Query != "" || loc != nil {
		places, err := h.engine.Live(r.Context(), q.Query, loc)
		if err != nil {
			respondWithError(w, r, http.StatusInternalServerError, "Restaurant search failed", err)
			return
		}
		respondWithJSON(w, http.StatusOK, places)
		return
	}

	places, err := h.store.ListPlaces(r.Context(), storedLimit)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to load restaurants", err)
		return
	}

	respondWithJSON(w, http.StatusOK, places)
}

func (h *RestaurantHandler) parseQuery(r *http.Request) (restaurantQuery, error) {
	params := r.URL.Query()
	q := restaurantQuery{Query: params.Get("query")}

	for _, p := range []struct {
		name string
		dst  **float64
	}{
		{"lat", &q.Lat},
		{"lng", &q.Lng},
	} {
		raw := params.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, &restaurant.ValidationError{Field: p.name, Message: p.name + " must be a number"}
		}
		*p.dst = &v
	}

	if err := h.validate.Struct(q); err != nil {
		return q, toValidationError(err)
	}
	return q, nil
}

// RefreshRestaurants runs the aggregation synchronously
func (h *RestaurantHandler) RefreshRestaurants(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Run(r.Context())
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Manual refresh failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "Restaurants refreshed",
		"count":   stats.Upserted,
	})
}

// Autocomplete returns place predictions for the input parameter
func (h *RestaurantHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("input")
	if input == "" {
		respondWithError(w, r, http.StatusBadRequest, "Missing input query parameter", nil)
		return
	}

	predictions, err := h.places.Autocomplete(r.Context(), input)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Autocomplete failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, predictions)
}
