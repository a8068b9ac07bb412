package catalog

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
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/autorovers/autorovers/internal/domain"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
	"github.com/autorovers/autorovers/internal/metrics"
)

// Endpoint labels.
const (
	EndpointDetails = "details"
	EndpointList    = "list"
)

const (
	vehiclesPath  = "/api/Vehicles"
	maxErrorBytes = 64 << 10
)

// Config holds the catalog client settings.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RatePerSec float64 // 0 = unlimited
	Burst      int
	Transport  http.RoundTripper
	Logger     *zap.Logger
}

// Client reads vehicles from the public catalog API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a catalog client. Requests are traced through otelhttp.
func New(cfg Config) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return c
}

// Get fetches the full record for slug.
func (c *Client) Get(ctx context.Context, slug string) (vehicle.Details, error) {
	var d vehicle.Details
	path := vehiclesPath + "/slug/" + url.PathEscape(slug)
	if err := c.get(ctx, EndpointDetails, path, &d); err != nil {
		return vehicle.Details{}, fmt.Errorf("get vehicle %s: %w", slug, err)
	}
	return d, nil
}

// List fetches the public vehicle list.
func (c *Client) List(ctx context.Context) ([]vehicle.Reference, error) {
	var items []vehicle.Reference
	if err := c.get(ctx, EndpointList, vehiclesPath, &items); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return items, nil
}

// HealthCheck verifies the catalog answers the list endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.List(ctx); err != nil {
		return fmt.Errorf("catalog health check: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.CatalogRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		fallback := fmt.Sprintf("Request failed: %d %s (%s)", resp.StatusCode, http.StatusText(resp.StatusCode), u)
		msg := errorMessage(raw, fallback)
		c.logger.Warn("Catalog request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return domain.NewCatalogError(resp.StatusCode, msg)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode response: %w", domain.ErrCatalogUnavailable, err)
	}
	return nil
}
