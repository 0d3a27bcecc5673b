// Package kma fetches surface observations from the KMA API hub. Responses
// come back as typ01 whitespace-delimited text; parsing them is the domain
// normalizer's job, this package only moves bytes.
package kma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/commute-comfort/internal/domain"
	"github.com/couchcryptid/commute-comfort/internal/observability"
)

// DefaultBaseURL is the KMA API hub surface observation endpoint.
const DefaultBaseURL = "https://apihub.kma.go.kr/api/typ01/url/kma_sfctm3.php"

const timeLayout = "200601021504"

// Client fetches typ01 observation text for one station. All calls go through
// a circuit breaker so a flapping upstream fails fast instead of stacking up
// slow requests.
type Client struct {
	baseURL    string
	authKey    string
	stationID  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a KMA client. An empty baseURL selects the production
// endpoint.
func NewClient(baseURL, authKey, stationID string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:     "kma",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &Client{
		baseURL:    baseURL,
		authKey:    authKey,
		stationID:  stationID,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchRecent retrieves the raw typ01 text covering the trailing span up to
// the current hour, both ends inclusive.
func (c *Client) FetchRecent(ctx context.Context, span time.Duration) (string, error) {
	end := domain.TruncateToHour(domain.Now())
	start := end.Add(-span)

	payload, err := c.breaker.Execute(func() (string, error) {
		return c.fetch(ctx, start, end)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "open_circuit"
		}
		c.metrics.UpstreamRequests.WithLabelValues(outcome).Inc()
		return "", &domain.FetchError{Op: "surface observations", Err: err}
	}

	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	return payload, nil
}

func (c *Client) fetch(ctx context.Context, start, end time.Time) (string, error) {
	params := url.Values{
		"tm1":     {start.Format(timeLayout)},
		"tm2":     {end.Format(timeLayout)},
		"stn":     {c.stationID},
		"help":    {"0"},
		"authKey": {c.authKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	began := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("observation request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamDuration.Observe(time.Since(began).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("kma api error: status %d: %s", resp.StatusCode, truncateBody(body))
	}

	c.logger.Debug("observations fetched",
		"station", c.stationID,
		"tm1", params.Get("tm1"),
		"tm2", params.Get("tm2"),
		"bytes", len(body),
	)
	return string(body), nil
}

// truncateBody keeps error messages readable when the upstream returns an
// HTML error page.
func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
