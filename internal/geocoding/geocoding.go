// Package geocoding is a client for the Google Maps Geocoding API.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com"
	geocodePath    = "/maps/api/geocode/json"

	statusOK = "OK"

	// 10 requests per second keeps well inside the API quota.
	defaultRate     = 10
	defaultBurst    = 10
	defaultCacheTTL = 24 * time.Hour
)

// APIError is returned when the geocoding service answers with a non-200 status.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, e.Message)
}

// Location is a forward geocoding result.
type Location struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// Address is a reverse geocoding result. Missing components are empty.
type Address struct {
	FullAddress string `json:"full_address"`
	Street      string `json:"street,omitempty"`
	CivicNumber string `json:"civic_number,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	AdminArea   string `json:"admin_area,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Client performs rate limited, cached geocoding requests.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *ttlCache[string, *Location]
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the request rate (per second) and burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithCacheTTL sets how long forward geocoding results are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = newTTLCache[string, *Location](ttl) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRate), defaultBurst),
		cache:      newTTLCache[string, *Location](defaultCacheTTL),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "geocoding")
	return c
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Geocode converts a place name or address into coordinates. It returns
// nil, nil when the service finds nothing.
func (c *Client) Geocode(ctx context.Context, text string) (*Location, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if loc, ok := c.cache.Get(key); ok {
		return loc, nil
	}

	q := url.Values{}
	q.Set("address", text)

	resp, err := c.do(ctx, q)
	if err != nil {
		return nil, err
	}

	if resp.Status != statusOK || len(resp.Results) == 0 {
		c.logger.Warn("geocoding returned no result", "text", text, "status", resp.Status, "message", resp.ErrorMessage)
		return nil, nil
	}

	r := resp.Results[0]
	loc := &Location{
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		FormattedAddress: r.FormattedAddress,
	}
	c.cache.Set(key, loc)

	return loc, nil
}

// ReverseGeocode resolves coordinates into a street level address. It
// returns nil, nil when the service finds nothing.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Address, error) {
	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("result_type", "street_address|plus_code")

	resp, err := c.do(ctx, q)
	if err != nil {
		return nil, err
	}

	if resp.Status != statusOK || len(resp.Results) == 0 {
		c.logger.Warn("reverse geocoding returned no result", "lat", lat, "lng", lng, "status", resp.Status)
		return nil, nil
	}

	r := resp.Results[0]
	pick := func(kind string) string {
		for _, comp := range r.AddressComponents {
			for _, t := range comp.Types {
				if t == kind {
					return comp.LongName
				}
			}
		}
		return ""
	}

	city := pick("locality")
	if city == "" {
		city = pick("postal_town")
	}

	return &Address{
		FullAddress: r.FormattedAddress,
		Street:      pick("route"),
		CivicNumber: pick("street_number"),
		City:        city,
		PostalCode:  pick("postal_code"),
		AdminArea:   pick("administrative_area_level_1"),
		Country:     pick("country"),
	}, nil
}

func (c *Client) do(ctx context.Context, q url.Values) (*geocodeResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoding: rate limit wait: %w", err)
	}

	q.Set("key", c.apiKey)
	reqURL := c.baseURL + geocodePath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Service: "Geocoding", StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("geocoding: decode response: %w", err)
	}

	return &out, nil
}
