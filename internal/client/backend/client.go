// internal/client/backend/client.go

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"miniregion/internal/domain/activity"
	"miniregion/internal/domain/restaurant"
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status code %d: %s", e.Code, e.Body)
}

// RestaurantQuery describes one restaurants request. Lat and Lng are sent
// only together.
type RestaurantQuery struct {
	Text   string
	Lat    *float64
	Lng    *float64
	Radius int
}

// Client talks to the Mini Region proxy server
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a new backend client
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

// Restaurants fetches merged place records
func (c *Client) Restaurants(ctx context.Context, q RestaurantQuery) ([]restaurant.Place, error) {
	params := url.Values{}
	if q.Text != "" {
		params.Set("query", q.Text)
	}
	if q.Lat != nil && q.Lng != nil {
		params.Set("lat", strconv.FormatFloat(*q.Lat, 'f', -1, 64))
		params.Set("lng", strconv.FormatFloat(*q.Lng, 'f', -1, 64))
		if q.Radius > 0 {
			params.Set("radius", strconv.Itoa(q.Radius))
		}
	}

	places := []restaurant.Place{}
	if err := c.get(ctx, "/api/restaurants", params, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// RefreshResult is the response of a manual refresh
type RefreshResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Refresh triggers a synchronous server-side aggregation
func (c *Client) Refresh(ctx context.Context) (RefreshResult, error) {
	var result RefreshResult
	err := c.get(ctx, "/api/refresh-restaurants", nil, &result)
	return result, err
}

// Events fetches events on or after startDate (YYYY-MM-DD, empty for today)
func (c *Client) Events(ctx context.Context, startDate string) ([]activity.Event, error) {
	params := url.Values{}
	if startDate != "" {
		params.Set("startDate", startDate)
	}

	events := []activity.Event{}
	err := c.get(ctx, "/api/events", params, &events)
	return events, err
}

// FamilyActivities fetches every family activity
func (c *Client) FamilyActivities(ctx context.Context) ([]activity.FamilyActivity, error) {
	activities := []activity.FamilyActivity{}
	err := c.get(ctx, "/api/family-activities", nil, &activities)
	return activities, err
}

// SocialMeetups fetches every meetup, newest first
func (c *Client) SocialMeetups(ctx context.Context) ([]activity.SocialMeetup, error) {
	meetups := []activity.SocialMeetup{}
	err := c.get(ctx, "/api/social-meetups", nil, &meetups)
	return meetups, err
}

// NewMeetup is the payload for creating a meetup. Date is RFC3339 or
// YYYY-MM-DD.
type NewMeetup struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
}

// CreateSocialMeetup creates a meetup and returns the stored record
func (c *Client) CreateSocialMeetup(ctx context.Context, m NewMeetup) (activity.SocialMeetup, error) {
	var created activity.SocialMeetup

	body, err := json.Marshal(m)
	if err != nil {
		return created, fmt.Errorf("failed to encode meetup: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/social-meetups", bytes.NewReader(body))
	if err != nil {
		return created, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	err = c.do(req, &created)
	return created, err
}

// Autocomplete returns place predictions. Inputs shorter than two characters
// return no predictions without a request.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]map[string]interface{}, error) {
	input = strings.TrimSpace(input)
	if len([]rune(input)) < 2 {
		return []map[string]interface{}{}, nil
	}

	predictions := []map[string]interface{}{}
	err := c.get(ctx, "/api/place-autocomplete", url.Values{"input": {input}}, &predictions)
	return predictions, err
}

// Health checks that the server answers
func (c *Client) Health(ctx context.Context) error {
	var body map[string]interface{}
	return c.get(ctx, "/", nil, &body)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	c.log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("backend request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug().Int("status", resp.StatusCode).Bytes("body", body).Msg("backend error response")
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if len(body) == 0 || string(body) == "null" {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
