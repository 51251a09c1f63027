package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"OppRadar/internal/domain/models"
	domsvc "OppRadar/internal/domain/service"
	icache "OppRadar/internal/service/cache"
	xhttp "OppRadar/pkg/http"
	applogger "OppRadar/pkg/logger"
)

// MLAnomalyClient calls the external anomaly-detection service. It never
// fails the pipeline: transient errors degrade to ErrMLUnavailable and a
// debug log, a 404 is an empty result. Results are cached per symbol to
// bound the call rate.
type MLAnomalyClient struct {
	baseURL string
	client  *xhttp.Client
	cache   *icache.TTLCache
	ttl     time.Duration
	l       *applogger.Logger
}

// NewMLAnomalyClient builds the adapter. ttl defaults to 60s, timeout to 3s.
func NewMLAnomalyClient(baseURL string, timeout, ttl time.Duration, l *applogger.Logger) *MLAnomalyClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &MLAnomalyClient{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:   icache.NewTTLCache(),
		ttl:     ttl,
		l:       l,
	}
}

type anomalyEnvelope struct {
	Success bool               `json:"success"`
	Data    []models.MLAnomaly `json:"data"`
}

// GetAnomalies returns the cached or freshly fetched anomalies for symbol.
func (c *MLAnomalyClient) GetAnomalies(ctx context.Context, symbol string) ([]models.MLAnomaly, error) {
	if v, ok := c.cache.Get(cacheKey(symbol)); ok {
		return v.([]models.MLAnomaly), nil
	}

	resp, err := c.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/api/ml/anomaly/detect/%s", c.baseURL, symbol),
	})
	if err != nil {
		if c.l != nil {
			c.l.Debug("ml anomaly fetch failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
		return nil, domsvc.ErrMLUnavailable
	}
	defer resp.Body.Close()

	// 404 means the service has no data for this symbol yet
	if resp.StatusCode == http.StatusNotFound {
		c.cache.Set(cacheKey(symbol), []models.MLAnomaly(nil), c.ttl)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.l != nil {
			c.l.Debug("ml anomaly bad status",
				applogger.String("symbol", symbol),
				applogger.Int("status", resp.StatusCode),
			)
		}
		return nil, domsvc.ErrMLUnavailable
	}

	var env anomalyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if c.l != nil {
			c.l.Debug("ml anomaly decode failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
		return nil, domsvc.ErrMLUnavailable
	}
	if !env.Success {
		return nil, domsvc.ErrMLUnavailable
	}

	c.cache.Set(cacheKey(symbol), env.Data, c.ttl)
	return env.Data, nil
}

// ClearCache invalidates one symbol's cached result.
func (c *MLAnomalyClient) ClearCache(symbol string) {
	c.cache.Delete(cacheKey(symbol))
}

// ClearAll invalidates every cached result.
func (c *MLAnomalyClient) ClearAll() {
	c.cache.Flush()
}

func cacheKey(symbol string) string { return "anomaly:" + symbol }

var _ domsvc.AnomalyDetector = (*MLAnomalyClient)(nil)

// NoopAnomalyDetector is used when no ML service is configured. Scoring
// then runs on technical and momentum components only.
type NoopAnomalyDetector struct{}

func (NoopAnomalyDetector) GetAnomalies(context.Context, string) ([]models.MLAnomaly, error) {
	return nil, nil
}
func (NoopAnomalyDetector) ClearCache(string) {}
func (NoopAnomalyDetector) ClearAll()         {}

var _ domsvc.AnomalyDetector = NoopAnomalyDetector{}
