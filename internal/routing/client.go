// Package routing is the HTTP client for the remote routing service.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/signalsfoundry/geospatial-navigator/internal/logging"
	"github.com/signalsfoundry/geospatial-navigator/model"
)

var (
	// ErrInvalidDestination matches a ServiceError whose message reports an
	// unknown destination.
	ErrInvalidDestination = errors.New("invalid destination")
	ErrEmptyRoute         = errors.New("route contains no waypoints")
	ErrNoBaseURL          = errors.New("routing base URL is empty")
)

const maxBodyBytes = 1 << 20

// ServiceError is a structured error returned by the routing service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrInvalidDestination) match the service's
// invalid-destination response.
func (e *ServiceError) Is(target error) bool {
	return target == ErrInvalidDestination &&
		strings.Contains(strings.ToLower(e.Message), ErrInvalidDestination.Error())
}

// Config configures the routing client.
type Config struct {
	BaseURL    string
	RoutePath  string
	PlacesPath string
	Timeout    time.Duration
}

// DefaultConfig returns a Config pointing at a local development server.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8080",
		RoutePath:  "/route",
		PlacesPath: "/places",
		Timeout:    10 * time.Second,
	}
}

// ApplyDefaults fills zero fields from DefaultConfig, except BaseURL.
func (c Config) ApplyDefaults() Config {
	d := DefaultConfig()
	if c.RoutePath == "" {
		c.RoutePath = d.RoutePath
	}
	if c.PlacesPath == "" {
		c.PlacesPath = d.PlacesPath
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client performs route lookups. It is safe for concurrent use.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
	log  logging.Logger
}

// NewClient validates cfg and builds a client whose transport emits
// OpenTelemetry spans.
func NewClient(cfg Config, log logging.Logger, opts ...Option) (*Client, error) {
	cfg = cfg.ApplyDefaults()
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse routing base URL: %w", err)
	}
	if log == nil {
		log = logging.Noop()
	}

	c := &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RequestRoute asks the service for the ordered waypoints from the origin to
// destinationID. The first waypoint is the origin itself.
func (c *Client) RequestRoute(ctx context.Context, originLat, originLon float64, destinationID int64) ([]model.Waypoint, error) {
	q := url.Values{}
	q.Set("origin_lat", strconv.FormatFloat(originLat, 'f', -1, 64))
	q.Set("origin_lon", strconv.FormatFloat(originLon, 'f', -1, 64))
	q.Set("destination_id", strconv.FormatInt(destinationID, 10))

	var body RouteResponse
	if err := c.getJSON(ctx, c.cfg.RoutePath, q, &body); err != nil {
		return nil, err
	}
	if len(body.Nodes) == 0 {
		return nil, ErrEmptyRoute
	}

	waypoints := make([]model.Waypoint, len(body.Nodes))
	for i, n := range body.Nodes {
		waypoints[i] = n.Waypoint()
	}
	c.log.Debug(ctx, "route received",
		logging.Int64("destination_id", destinationID),
		logging.Int("waypoints", len(waypoints)),
	)
	return waypoints, nil
}

// ListPlaces fetches the selectable destinations.
func (c *Client) ListPlaces(ctx context.Context) ([]model.Place, error) {
	var body PlacesResponse
	if err := c.getJSON(ctx, c.cfg.PlacesPath, nil, &body); err != nil {
		return nil, err
	}
	return body.Places, nil
}

// errorCarrier is implemented by response bodies with an "error" field.
type errorCarrier interface {
	serviceError() string
}

func (r *RouteResponse) serviceError() string  { return r.Error }
func (r *PlacesResponse) serviceError() string { return r.Error }

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out errorCarrier) error {
	u := c.base.JoinPath(path)
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("routing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read routing response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &ServiceError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode routing response: %w", err)
	}
	if msg := out.serviceError(); msg != "" {
		return &ServiceError{StatusCode: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &ServiceError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}
