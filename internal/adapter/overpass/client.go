// internal/adapter/overpass/client.go

package overpass

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Element is a single OpenStreetMap node returned by the interpreter
type Element struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

// Tag returns the first non-empty value among keys
func (e Element) Tag(keys ...string) string {
	for _, k := range keys {
		if v := e.Tags[k]; v != "" {
			return v
		}
	}
	return ""
}

type response struct {
	Elements []Element `json:"elements"`
	Remark   string    `json:"remark"`
}

// Client posts Overpass QL queries to an interpreter endpoint
type Client struct {
	httpClient *http.Client
	endpoint   string
	log        zerolog.Logger
}

// NewClient creates a new Overpass client
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(endpoint string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		log:        log,
	}
}

// Query runs a query and returns its elements
func (c *Client) Query(ctx context.Context, ql string) ([]Element, error) {
	form := url.Values{}
	form.Set("data", ql)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse overpass response: %w", err)
	}
	if result.Remark != "" {
		c.log.Warn().Str("remark", result.Remark).Msg("overpass returned a remark")
	}

	return result.Elements, nil
}

// FamilyQuery builds the query for family-friendly nodes inside a
// south,west,north,east bounding box
func FamilyQuery(bbox [4]float64) string {
	box := fmt.Sprintf("(%g,%g,%g,%g)", bbox[0], bbox[1], bbox[2], bbox[3])

	var b strings.Builder
	b.WriteString("[out:json][timeout:60];\n(\n")
	for _, f := range []string{
		`node["leisure"="playground"]`,
		`node["amenity"="museum"]`,
		`node["tourism"="museum"]`,
		`node["amenity"="library"]`,
		`node["leisure"="swimming_pool"]`,
		`node["tourism"="zoo"]`,
	} {
		b.WriteString("  " + f + box + ";\n")
	}
	b.WriteString(");\nout body;\n")
	return b.String()
}
