// internal/adapter/places/client.go

package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"miniregion/internal/domain/restaurant"
	"miniregion/internal/metrics"
)

// Config contains configuration for the place provider client
type Config struct {
	APIKey           string
	BaseURL          string
	Timeout          time.Duration
	DetailTimeout    time.Duration
	Language         string
	Country          string
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// Client talks to the Google Places web service
type Client struct {
	httpClient *http.Client
	config     Config
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        zerolog.Logger
}

// NewClient creates a new place provider client
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(config Config, log zerolog.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.DetailTimeout <= 0 {
		config.DetailTimeout = 5 * time.Second
	}
	if config.BreakerThreshold == 0 {
		config.BreakerThreshold = 5
	}

	c := &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		log:        log,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "places",
		Timeout: config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return c
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// TextSearch runs a text search, optionally biased to a location
func (c *Client) TextSearch(ctx context.Context, req restaurant.SearchRequest) (restaurant.SearchPage, error) {
	if !c.Configured() {
		metrics.RecordPlacesRequest("textsearch", "not_configured")
		return restaurant.SearchPage{}, fmt.Errorf("places text search: %w", restaurant.ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("key", c.config.APIKey)
	if req.PageToken != "" {
		params.Set("pagetoken", req.PageToken)
	} else {
		params.Set("query", req.Query)
		params.Set("type", "restaurant")
		if req.Location != nil {
			params.Set("location", formatLatLng(*req.Location))
			if req.RadiusMeters > 0 {
				params.Set("radius", strconv.Itoa(req.RadiusMeters))
			}
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, "textsearch", params)
	})
	if err != nil {
		metrics.RecordPlacesRequest("textsearch", outcome(err))
		return restaurant.SearchPage{}, wrapUpstream("text search", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordPlacesRequest("textsearch", "error")
		return restaurant.SearchPage{}, fmt.Errorf("places text search: decode: %w: %w", restaurant.ErrUpstreamUnavailable, err)
	}

	if resp.Status != statusOK && resp.Status != statusZeroResults {
		metrics.RecordPlacesRequest("textsearch", "error")
		return restaurant.SearchPage{}, fmt.Errorf("places text search: status %s %s: %w", resp.Status, resp.ErrorMessage, restaurant.ErrUpstreamUnavailable)
	}

	metrics.RecordPlacesRequest("textsearch", "ok")

	page := restaurant.SearchPage{
		Results:       make([]restaurant.PlaceSummary, 0, len(resp.Results)),
		NextPageToken: resp.NextPageToken,
	}
	for _, r := range resp.Results {
		page.Results = append(page.Results, r.toSummary())
	}

	return page, nil
}

// Details fetches website, phone, opening hours and reviews for one place.
// A provider status other than OK is logged and yields the partial detail.
func (c *Client) Details(ctx context.Context, placeID string) (restaurant.PlaceDetail, error) {
	if !c.Configured() {
		metrics.RecordPlacesRequest("details", "not_configured")
		return restaurant.PlaceDetail{}, fmt.Errorf("places details: %w", restaurant.ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.DetailTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "website,formatted_phone_number,opening_hours,reviews")
	params.Set("key", c.config.APIKey)

	body, err := c.get(ctx, "details", params)
	if err != nil {
		metrics.RecordPlacesRequest("details", "error")
		return restaurant.PlaceDetail{}, wrapUpstream("details", err)
	}

	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordPlacesRequest("details", "error")
		return restaurant.PlaceDetail{}, fmt.Errorf("places details: decode: %w: %w", restaurant.ErrUpstreamUnavailable, err)
	}

	if resp.Status != statusOK {
		c.log.Warn().
			Str("place_id", placeID).
			Str("status", resp.Status).
			Str("error_message", resp.ErrorMessage).
			Msg("place details not OK")
	}

	metrics.RecordPlacesRequest("details", "ok")
	return resp.Result.toDetail(), nil
}

// Autocomplete returns raw prediction objects for an input string
func (c *Client) Autocomplete(ctx context.Context, input string) ([]map[string]interface{}, error) {
	if !c.Configured() {
		metrics.RecordPlacesRequest("autocomplete", "not_configured")
		return nil, fmt.Errorf("places autocomplete: %w", restaurant.ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("input", input)
	params.Set("key", c.config.APIKey)
	params.Set("types", "establishment")
	if c.config.Language != "" {
		params.Set("language", c.config.Language)
	}
	if c.config.Country != "" {
		params.Set("components", "country:"+c.config.Country)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, "autocomplete", params)
	})
	if err != nil {
		metrics.RecordPlacesRequest("autocomplete", outcome(err))
		return nil, wrapUpstream("autocomplete", err)
	}

	var resp autocompleteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordPlacesRequest("autocomplete", "error")
		return nil, fmt.Errorf("places autocomplete: decode: %w: %w", restaurant.ErrUpstreamUnavailable, err)
	}

	if resp.Status != statusOK && resp.Status != statusZeroResults {
		metrics.RecordPlacesRequest("autocomplete", "error")
		return nil, fmt.Errorf("places autocomplete: status %s %s: %w", resp.Status, resp.ErrorMessage, restaurant.ErrUpstreamUnavailable)
	}

	metrics.RecordPlacesRequest("autocomplete", "ok")
	if resp.Predictions == nil {
		resp.Predictions = []map[string]interface{}{}
	}
	return resp.Predictions, nil
}

// get performs a GET against <base>/<endpoint>/json and returns the body of a
// 2xx response
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/json?%s", c.config.BaseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach place provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("place provider returned status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func wrapUpstream(op string, err error) error {
	return fmt.Errorf("places %s: %w: %w", op, restaurant.ErrUpstreamUnavailable, err)
}

func outcome(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "breaker_open"
	}
	return "error"
}

func formatLatLng(p restaurant.LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}
