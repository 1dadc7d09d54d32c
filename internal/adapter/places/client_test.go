package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"miniregion/internal/domain/restaurant"
	"miniregion/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:           "test-key",
		BaseURL:          srv.URL,
		Timeout:          2 * time.Second,
		DetailTimeout:    time.Second,
		Language:         "de",
		Country:          "ch",
		BreakerThreshold: 2,
		BreakerTimeout:   time.Minute,
	}, logging.Nop())
}

func TestTextSearchParsesResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/textsearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query") != "restaurants in Graubünden" {
			t.Errorf("unexpected query %q", q.Get("query"))
		}
		if q.Get("location") != "46.85,9.53" || q.Get("radius") != "25000" {
			t.Errorf("unexpected location bias %q/%q", q.Get("location"), q.Get("radius"))
		}
		w.Write([]byte(`{
			"status": "OK",
			"next_page_token": "next",
			"results": [{
				"place_id": "p1",
				"name": "Calanda",
				"formatted_address": "Chur",
				"rating": 4.4,
				"types": ["restaurant", "food"],
				"geometry": {"location": {"lat": 46.85, "lng": 9.53}},
				"photos": [{"photo_reference": "ref1"}],
				"user_ratings_total": 12
			}]
		}`))
	})

	page, err := client.TextSearch(context.Background(), restaurant.SearchRequest{
		Query:        "restaurants in Graubünden",
		Location:     &restaurant.LatLng{Lat: 46.85, Lng: 9.53},
		RadiusMeters: 25000,
	})
	if err != nil {
		t.Fatalf("TextSearch failed: %v", err)
	}

	if page.NextPageToken != "next" {
		t.Errorf("next page token = %q", page.NextPageToken)
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(page.Results))
	}
	got := page.Results[0]
	if got.PlaceID != "p1" || got.Rating == nil || *got.Rating != 4.4 || got.Location.Lng != 9.53 {
		t.Errorf("unexpected summary %+v", got)
	}
	if len(got.Photos) != 1 || got.Photos[0].Reference != "ref1" {
		t.Errorf("unexpected photos %+v", got.Photos)
	}
}

func TestTextSearchZeroResultsIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	page, err := client.TextSearch(context.Background(), restaurant.SearchRequest{Query: "nothing"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(page.Results) != 0 {
		t.Errorf("expected empty results, got %d", len(page.Results))
	}
}

func TestTextSearchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "provider status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "bad key"}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.TextSearch(context.Background(), restaurant.SearchRequest{Query: "x"})
			if !errors.Is(err, restaurant.ErrUpstreamUnavailable) {
				t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
			}
		})
	}
}

func TestMissingKeyIsConfigurationError(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, logging.Nop())

	if _, err := client.TextSearch(context.Background(), restaurant.SearchRequest{Query: "x"}); !errors.Is(err, restaurant.ErrNotConfigured) {
		t.Errorf("TextSearch: expected ErrNotConfigured, got %v", err)
	}
	if _, err := client.Details(context.Background(), "p1"); !errors.Is(err, restaurant.ErrNotConfigured) {
		t.Errorf("Details: expected ErrNotConfigured, got %v", err)
	}
	if _, err := client.Autocomplete(context.Background(), "chur"); !errors.Is(err, restaurant.ErrNotConfigured) {
		t.Errorf("Autocomplete: expected ErrNotConfigured, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 4; i++ {
		_, err := client.TextSearch(context.Background(), restaurant.SearchRequest{Query: "x"})
		if !errors.Is(err, restaurant.ErrUpstreamUnavailable) {
			t.Fatalf("call %d: expected ErrUpstreamUnavailable, got %v", i, err)
		}
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("expected the breaker to stop calls after 2 failures, server saw %d", got)
	}
}

func TestDetailsParsesFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("place_id") != "p1" {
			t.Errorf("unexpected place_id %q", r.URL.Query().Get("place_id"))
		}
		if !strings.Contains(r.URL.Query().Get("fields"), "opening_hours") {
			t.Errorf("fields missing opening_hours: %q", r.URL.Query().Get("fields"))
		}
		w.Write([]byte(`{
			"status": "OK",
			"result": {
				"website": "https://calanda.ch",
				"formatted_phone_number": "081 000 00 00",
				"opening_hours": {"open_now": true, "weekday_text": ["Montag: 08:00–22:00"]},
				"reviews": [{"author_name": "Anna", "rating": 5, "text": "Top", "time": 1700000000}]
			}
		}`))
	})

	detail, err := client.Details(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if detail.Website == nil || *detail.Website != "https://calanda.ch" {
		t.Errorf("unexpected website %v", detail.Website)
	}
	if detail.Phone == nil || *detail.Phone != "081 000 00 00" {
		t.Errorf("unexpected phone %v", detail.Phone)
	}
	if detail.OpeningHours == nil || !detail.OpeningHours.OpenNow || len(detail.OpeningHours.WeekdayText) != 1 {
		t.Errorf("unexpected opening hours %+v", detail.OpeningHours)
	}
	if len(detail.Reviews) != 1 || detail.Reviews[0].AuthorName != "Anna" || detail.Reviews[0].Time != 1700000000 {
		t.Errorf("unexpected reviews %+v", detail.Reviews)
	}
}

func TestDetailsNotOKYieldsEmptyDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "NOT_FOUND"}`))
	})

	detail, err := client.Details(context.Background(), "gone")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if detail.Website != nil || detail.Phone != nil || detail.OpeningHours != nil || len(detail.Reviews) != 0 {
		t.Errorf("expected empty detail, got %+v", detail)
	}
	if detail.Reviews == nil {
		t.Error("reviews should be an empty slice")
	}
}

func TestAutocomplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("components") != "country:ch" || q.Get("language") != "de" || q.Get("types") != "establishment" {
			t.Errorf("unexpected autocomplete params %v", q)
		}
		w.Write([]byte(`{"status": "OK", "predictions": [{"description": "Calanda, Chur", "place_id": "p1"}]}`))
	})

	preds, err := client.Autocomplete(context.Background(), "Cal")
	if err != nil {
		t.Fatalf("Autocomplete failed: %v", err)
	}
	if len(preds) != 1 || preds[0]["place_id"] != "p1" {
		t.Errorf("unexpected predictions %v", preds)
	}
}
