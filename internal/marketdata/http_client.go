package marketdata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/alphalab/internal/models"
)

// httpClient is a rate-limited HTTP client with retries, shared by the REST
// data providers.
type httpClient struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

func newHTTPClient(logger *logrus.Logger, requestsPerSecond float64) *httpClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = nil

	return &httpClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

// getJSON performs a rate-limited GET and decodes the JSON response into out.
func (c *httpClient) getJSON(ctx context.Context, url string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.WrapError(models.KindDataFetch, err, "rate limiter interrupted")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.WrapError(models.KindDataFetch, err, "failed to build request")
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return models.WrapError(models.KindDataFetch, err, "request failed")
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("HTTP request completed")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.NewDataFetchError("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.WrapError(models.KindDataFetch, err, "failed to decode response")
	}
	return nil
}
