package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maiimostafaa/voyager-sub001/internal/metrics"
	"github.com/maiimostafaa/voyager-sub001/internal/shared/geo"
)

const clientTimeout = 10 * time.Second

var (
	ErrNoResults = errors.New("no geocoding results")
	ErrNoCity    = errors.New("no city for location")
)

type Geocoder interface {
	Search(ctx context.Context, query string) ([]Place, error)
	Reverse(ctx context.Context, p geo.Point) (Address, error)
}

// Client talks to a Nominatim-compatible HTTP API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	log       *slog.Logger
}

func NewClient(baseURL, userAgent string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: clientTimeout},
		log:       log,
	}
}

func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var places []Place
	err := c.get(ctx, "search", params, &places)
	metrics.RecordGeocode("search", err)
	if err != nil {
		return nil, err
	}
	return places, nil
}

func (c *Client) Reverse(ctx context.Context, p geo.Point) (Address, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	params.Set("format", "json")

	var resp reverseResponse
	err := c.get(ctx, "reverse", params, &resp)
	if err == nil && resp.Error != "" {
		err = fmt.Errorf("reverse: %s", resp.Error)
	}
	metrics.RecordGeocode("reverse", err)
	if err != nil {
		return Address{}, err
	}
	return resp.Address, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + "/" + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "failed to close response body",
				"operation", path,
				"error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// ForwardCity resolves free text to the city it names and a coordinate for
// it: the first search hit, reverse geocoded. When the reverse lookup has no
// settlement the leading part of the hit's display name is used instead.
func ForwardCity(ctx context.Context, g Geocoder, query string) (string, geo.Point, error) {
	places, err := g.Search(ctx, query)
	if err != nil {
		return "", geo.Point{}, err
	}
	if len(places) == 0 {
		return "", geo.Point{}, ErrNoResults
	}
	point, err := places[0].Point()
	if err != nil {
		return "", geo.Point{}, err
	}

	addr, err := g.Reverse(ctx, point)
	if err == nil {
		if city := addr.CityName(); city != "" {
			return city, point, nil
		}
	}
	if head, _, _ := strings.Cut(places[0].DisplayName, ","); strings.TrimSpace(head) != "" {
		return strings.TrimSpace(head), point, nil
	}
	if err != nil {
		return "", point, err
	}
	return "", point, ErrNoCity
}
