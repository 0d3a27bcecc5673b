package kma

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/commute-comfort/internal/domain"
	"github.com/couchcryptid/commute-comfort/internal/observability"
)

const testAuthKey = "test-auth-key"

func testClient(baseURL string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(baseURL, testAuthKey, "108", 5*time.Second, logger, observability.NewMetricsForTesting())
}

func freezeAt(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestClient_FetchRecent_Success(t *testing.T) {
	freezeAt(t, time.Date(2024, 8, 29, 7, 45, 0, 0, domain.KST))

	const payload = `# YYMMDDHHMI STN WS TA HM RN
202408290700 108 2.0 18.0 55.0 0.0`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "202408290400", q.Get("tm1"))
		assert.Equal(t, "202408290700", q.Get("tm2"))
		assert.Equal(t, "108", q.Get("stn"))
		assert.Equal(t, "0", q.Get("help"))
		assert.Equal(t, testAuthKey, q.Get("authKey"))

		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.FetchRecent(context.Background(), 3*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestClient_FetchRecent_UpstreamError(t *testing.T) {
	freezeAt(t, time.Date(2024, 8, 29, 7, 0, 0, 0, domain.KST))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchRecent(context.Background(), 3*time.Hour)

	var ferr *domain.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "surface observations", ferr.Op)
	assert.Contains(t, ferr.Error(), "status 503")
}

func TestClient_FetchRecent_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	freezeAt(t, time.Date(2024, 8, 29, 7, 0, 0, 0, domain.KST))

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	var err error
	for i := 0; i < 10; i++ {
		_, err = c.FetchRecent(context.Background(), 3*time.Hour)
		require.Error(t, err)
	}

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Less(t, requests, 10, "open breaker should stop reaching the upstream")
}

func TestClient_FetchRecent_ConnectionRefused(t *testing.T) {
	freezeAt(t, time.Date(2024, 8, 29, 7, 0, 0, 0, domain.KST))

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse all connections

	c := testClient(srv.URL)
	_, err := c.FetchRecent(context.Background(), 3*time.Hour)

	var ferr *domain.FetchError
	assert.ErrorAs(t, err, &ferr)
	assert.False(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestTruncateBody(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, truncateBody(long), 203)
	assert.Equal(t, "short", truncateBody([]byte("short")))
}
