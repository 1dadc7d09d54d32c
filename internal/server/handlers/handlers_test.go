package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"miniregion/internal/domain/activity"
	"miniregion/internal/domain/restaurant"
	"miniregion/internal/service/aggregation"
)

type fakeAggregator struct {
	runErr   error
	liveErr  error
	places   []restaurant.Place
	query    string
	location *restaurant.LatLng
	liveN    int
}

func (f *fakeAggregator) Run(context.Context) (aggregation.RunStats, error) {
	if f.runErr != nil {
		return aggregation.RunStats{}, f.runErr
	}
	return aggregation.RunStats{Upserted: len(f.places)}, nil
}

func (f *fakeAggregator) Live(_ context.Context, query string, loc *restaurant.LatLng) ([]restaurant.Place, error) {
	f.liveN++
	f.query = query
	f.location = loc
	return f.places, f.liveErr
}

type fakeAutocompleter struct {
	err error
}

func (f *fakeAutocompleter) Autocomplete(_ context.Context, input string) ([]map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []map[string]interface{}{{"description": input}}, nil
}

type fakeRestaurantStore struct {
	places []restaurant.Place
	limit  int
	err    error
}

func (f *fakeRestaurantStore) UpsertPlaces(context.Context, []restaurant.Place) error { return nil }

func (f *fakeRestaurantStore) ListPlaces(_ context.Context, limit int) ([]restaurant.Place, error) {
	f.limit = limit
	return f.places, f.err
}

type fakeActivityStore struct {
	mu      sync.Mutex
	since   time.Time
	meetups []activity.SocialMeetup
	err     error
}

func (f *fakeActivityStore) FindEventsSince(_ context.Context, since time.Time) ([]activity.Event, error) {
	f.since = since
	return []activity.Event{}, f.err
}

func (f *fakeActivityStore) ListFamilyActivities(context.Context) ([]activity.FamilyActivity, error) {
	return []activity.FamilyActivity{}, f.err
}

func (f *fakeActivityStore) UpsertFamilyActivities(context.Context, []activity.FamilyActivity) error {
	return nil
}

func (f *fakeActivityStore) ListSocialMeetups(context.Context) ([]activity.SocialMeetup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meetups, f.err
}

func (f *fakeActivityStore) CreateSocialMeetup(_ context.Context, m activity.SocialMeetup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.meetups = append(f.meetups, m)
	return nil
}

func place(id string) restaurant.Place {
	return restaurant.Merge(restaurant.PlaceSummary{PlaceID: id, Name: id}, restaurant.EmptyDetail())
}

func TestGetRestaurantsValidation(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantLive   bool
	}{
		{"stored without params", "/api/restaurants", http.StatusOK, false},
		{"query", "/api/restaurants?query=pizza", http.StatusOK, true},
		{"location bounds inclusive", "/api/restaurants?lat=90&lng=180", http.StatusOK, true},
		{"negative bounds inclusive", "/api/restaurants?lat=-90&lng=-180", http.StatusOK, true},
		{"lat out of range", "/api/restaurants?lat=91&lng=9", http.StatusBadRequest, false},
		{"lng out of range", "/api/restaurants?lat=46&lng=180.5", http.StatusBadRequest, false},
		{"lat not a number", "/api/restaurants?lat=north&lng=9", http.StatusBadRequest, false},
		{"query too long", "/api/restaurants?query=" + strings.Repeat("a", 101), http.StatusBadRequest, false},
		{"query at limit", "/api/restaurants?query=" + strings.Repeat("a", 100), http.StatusOK, true},
		{"only lat is ignored", "/api/restaurants?lat=46.8", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &fakeAggregator{places: []restaurant.Place{place("live")}}
			store := &fakeRestaurantStore{places: []restaurant.Place{place("stored")}}
			h := NewRestaurantHandler(agg, &fakeAutocompleter{}, store)

			rec := httptest.NewRecorder()
			h.GetRestaurants(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if (agg.liveN > 0) != tt.wantLive {
				t.Errorf("live called = %v, want %v", agg.liveN > 0, tt.wantLive)
			}
			if rec.Code == http.StatusOK && !tt.wantLive && store.limit != storedLimit {
				t.Errorf("stored limit = %d, want %d", store.limit, storedLimit)
			}
		})
	}
}

func TestGetRestaurantsValidationNamesField(t *testing.T) {
	h := NewRestaurantHandler(&fakeAggregator{}, &fakeAutocompleter{}, &fakeRestaurantStore{})

	rec := httptest.NewRecorder()
	h.GetRestaurants(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants?lat=91&lng=9", nil))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["field"] != "lat" {
		t.Errorf("expected field lat, got %v", body)
	}
}

func TestGetRestaurantsPassesLocation(t *testing.T) {
	agg := &fakeAggregator{}
	h := NewRestaurantHandler(agg, &fakeAutocompleter{}, &fakeRestaurantStore{})

	rec := httptest.NewRecorder()
	h.GetRestaurants(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants?lat=46.85&lng=9.53", nil))

	if agg.location == nil || agg.location.Lat != 46.85 || agg.location.Lng != 9.53 {
		t.Errorf("unexpected location %+v", agg.location)
	}
	if agg.query != "" {
		t.Errorf("unexpected query %q", agg.query)
	}
}

func TestGetRestaurantsUpstreamFailure(t *testing.T) {
	for _, err := range []error{restaurant.ErrUpstreamUnavailable, restaurant.ErrNotConfigured} {
		h := NewRestaurantHandler(&fakeAggregator{liveErr: err}, &fakeAutocompleter{}, &fakeRestaurantStore{})

		rec := httptest.NewRecorder()
		h.GetRestaurants(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants?query=x", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%v: status = %d, want 500", err, rec.Code)
		}
		if strings.Contains(rec.Body.String(), err.Error()) {
			t.Errorf("%v: internal error leaked to client: %s", err, rec.Body.String())
		}
	}
}

func TestRefreshRestaurants(t *testing.T) {
	h := NewRestaurantHandler(&fakeAggregator{places: []restaurant.Place{place("a"), place("b")}}, &fakeAutocompleter{}, &fakeRestaurantStore{})

	rec := httptest.NewRecorder()
	h.RefreshRestaurants(rec, httptest.NewRequest(http.MethodGet, "/api/refresh-restaurants", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" || body["count"] != float64(2) {
		t.Errorf("unexpected body %v", body)
	}

	h = NewRestaurantHandler(&fakeAggregator{runErr: errors.New("boom")}, &fakeAutocompleter{}, &fakeRestaurantStore{})
	rec = httptest.NewRecorder()
	h.RefreshRestaurants(rec, httptest.NewRequest(http.MethodGet, "/api/refresh-restaurants", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestAutocomplete(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		err        error
		wantStatus int
	}{
		{"missing input", "/api/place-autocomplete", nil, http.StatusBadRequest},
		{"ok", "/api/place-autocomplete?input=Chur", nil, http.StatusOK},
		{"not configured", "/api/place-autocomplete?input=Chur", restaurant.ErrNotConfigured, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRestaurantHandler(&fakeAggregator{}, &fakeAutocompleter{err: tt.err}, &fakeRestaurantStore{})
			rec := httptest.NewRecorder()
			h.Autocomplete(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetEventsStartDate(t *testing.T) {
	store := &fakeActivityStore{}
	h := NewActivityHandler(store)
	h.now = func() time.Time { return time.Date(2024, 7, 3, 15, 4, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.GetEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	if rec.Code != http.StatusOK || !store.since.Equal(time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("default: status %d since %v", rec.Code, store.since)
	}

	rec = httptest.NewRecorder()
	h.GetEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events?startDate=2024-08-01", nil))
	if rec.Code != http.StatusOK || !store.since.Equal(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("explicit: status %d since %v", rec.Code, store.since)
	}

	rec = httptest.NewRecorder()
	h.GetEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events?startDate=01.08.2024", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid date: status = %d, want 400", rec.Code)
	}
}

func TestCreateSocialMeetup(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{
			name:       "valid",
			body:       `{"title":"Wandern","description":"Zum Calanda","date":"2024-09-01","location":"Chur"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "rfc3339 date",
			body:       `{"title":"Jass","description":"Abend","date":"2024-09-01T19:00:00+02:00","location":"Davos"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing title",
			body:       `{"description":"x","date":"2024-09-01","location":"Chur"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "title",
		},
		{
			name:       "title too long",
			body:       `{"title":"` + strings.Repeat("t", 101) + `","description":"x","date":"2024-09-01","location":"Chur"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "title",
		},
		{
			name:       "bad date",
			body:       `{"title":"x","description":"x","date":"soon","location":"Chur"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "date",
		},
		{
			name:       "malformed json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeActivityStore{}
			h := NewActivityHandler(store)

			rec := httptest.NewRecorder()
			h.CreateSocialMeetup(rec, httptest.NewRequest(http.MethodPost, "/api/social-meetups", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantField != "" {
				var body map[string]string
				json.Unmarshal(rec.Body.Bytes(), &body)
				if body["field"] != tt.wantField {
					t.Errorf("field = %q, want %q", body["field"], tt.wantField)
				}
			}

			if tt.wantStatus == http.StatusCreated {
				if len(store.meetups) != 1 || store.meetups[0].ID == "" {
					t.Fatalf("meetup not stored: %+v", store.meetups)
				}
				var created activity.SocialMeetup
				json.Unmarshal(rec.Body.Bytes(), &created)
				if created.ID != store.meetups[0].ID {
					t.Errorf("response id %q does not match stored %q", created.ID, store.meetups[0].ID)
				}
			} else if len(store.meetups) != 0 {
				t.Error("invalid meetup must not be stored")
			}
		})
	}
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	h := NewActivityHandler(&fakeActivityStore{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	h.GetFamilyActivities(rec, httptest.NewRequest(http.MethodGet, "/api/family-activities", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("store error leaked: %s", rec.Body.String())
	}
}
