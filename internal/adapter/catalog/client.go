// Package catalog fetches pipeline inputs from the asset catalog HTTP
// service, which serves the same JSON documents the fixture store reads from
// disk. Fetched documents are cached so re-running a date range does not
// re-download unchanged assets.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/asset"
	"github.com/couchcryptid/ssebop-etl/internal/observability"
	"github.com/couchcryptid/ssebop-etl/internal/pipeline"
	"github.com/couchcryptid/ssebop-etl/internal/scene"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

// Client implements pipeline.WeatherSource and pipeline.SceneCatalog against
// the catalog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
	cache      *lruCache
}

// NewClient creates a catalog client. cacheSize bounds the number of cached
// documents; weather days for a large deployment run a few megabytes each.
func NewClient(baseURL string, timeout time.Duration, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
		cache:      newLRUCache(cacheSize),
	}
}

// Ancillary fetches the static elevation and latitude grids.
func (c *Client) Ancillary(ctx context.Context) (weather.Ancillary, error) {
	data, err := c.fetch(ctx, "ancillary", "/ancillary.json")
	if err != nil {
		return weather.Ancillary{}, err
	}
	return asset.DecodeAncillary(data)
}

// Day fetches one raw weather day. A 404 from the catalog is a data gap,
// reported as pipeline.ErrNotAvailable.
func (c *Client) Day(ctx context.Context, src weather.Source, date time.Time) (weather.RawDay, error) {
	path := fmt.Sprintf("/weather/%s/%s.json", src, date.Format("2006-01-02"))
	data, err := c.fetch(ctx, "weather", path)
	if err != nil {
		return weather.RawDay{}, err
	}
	return asset.DecodeWeatherDay(data)
}

// Scenes fetches the day's acquisitions. A 404 means no overpasses that day
// and returns an empty list.
func (c *Client) Scenes(ctx context.Context, date time.Time) ([]scene.RawImage, error) {
	path := fmt.Sprintf("/scenes/%s.json", date.Format("2006-01-02"))
	data, err := c.fetch(ctx, "scenes", path)
	if errors.Is(err, pipeline.ErrNotAvailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return asset.DecodeScenes(data)
}

// fetch GETs a catalog path, consulting and filling the document cache.
func (c *Client) fetch(ctx context.Context, kind, path string) ([]byte, error) {
	if data, ok := c.cache.get(path); ok {
		c.metrics.CatalogCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	c.metrics.CatalogCache.WithLabelValues("miss").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("catalog: %s request: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.CatalogRequests.WithLabelValues(kind, "missing").Inc()
		return nil, fmt.Errorf("%w: %s", pipeline.ErrNotAvailable, path)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.CatalogRequests.WithLabelValues(kind, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("catalog: %s: status %d: %s", path, resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	c.metrics.CatalogRequests.WithLabelValues(kind, "success").Inc()
	c.cache.put(path, data)
	return data, nil
}
