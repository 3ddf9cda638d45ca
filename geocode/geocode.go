// Package geocode resolves metadata coordinates to a human-readable
// region name via the Nominatim reverse geocoding API.
package geocode

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// UserAgent identifies us to Nominatim, which requires a real one.
	UserAgent = "geoint-analysis-service/1.0"

	// minRequestInterval honors Nominatim's 1 req/sec usage policy.
	minRequestInterval = time.Second
)

// Client is a rate-limited Nominatim reverse geocoder.
type Client struct {
	baseURL    string
	httpClient *http.Client

	rateLimitLock sync.Mutex
	lastRequest   time.Time
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Location is a resolved place, reduced to what the analysis metadata
// needs.
type Location struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Country     string `json:"country"`
}

// RegionName is the single-line label offered for the metadata form.
func (l Location) RegionName() string {
	switch {
	case l.Name != "" && l.Country != "":
		return l.Name + ", " + l.Country
	case l.Name != "":
		return l.Name
	case l.DisplayName != "":
		return l.DisplayName
	}
	return ""
}

type nominatimResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// enforceRateLimit ensures we don't exceed Nominatim's rate limit.
func (c *Client) enforceRateLimit() {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

// ReverseGeocode resolves coordinates to a Location.
func (c *Client) ReverseGeocode(lat, lon float64) (*Location, error) {
	c.enforceRateLimit()

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("zoom", "10") // settlement-level detail

	reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nominatim returned status %d: %s", resp.StatusCode, string(body))
	}

	var nomResp nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nomResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return parseResponse(&nomResp), nil
}

func parseResponse(resp *nominatimResponse) *Location {
	name := firstNonEmpty(
		resp.Name,
		resp.Address.City,
		resp.Address.Town,
		resp.Address.Village,
		resp.Address.County,
		resp.Address.State,
	)
	return &Location{
		Name:        name,
		DisplayName: resp.DisplayName,
		Country:     resp.Address.Country,
	}
}

func firstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}
