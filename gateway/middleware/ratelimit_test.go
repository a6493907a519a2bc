package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"instructions": {RequestsPerMinute: 1, Burst: 1},
	}, nil)
	handler := limiter.Middleware("instructions")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/instructions/init", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	require.Equal(t, "1", res.Header().Get("Retry-After"))
	require.Contains(t, res.Body.String(), "rate_limited")
}

func TestRateLimiterSeparatesKeys(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"instructions": {RequestsPerMinute: 1, Burst: 1},
		"custody":      {RequestsPerMinute: 1, Burst: 1},
	}, nil)
	build := limiter.Middleware("instructions")(okHandler())
	read := limiter.Middleware("custody")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	build.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	read.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRateLimiterSeparatesClients(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"instructions": {RequestsPerMinute: 1, Burst: 1},
	}, nil)
	handler := limiter.Middleware("instructions")(okHandler())

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip+", 192.168.1.1")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code, ip)
	}
}

func TestRateLimiterUnknownKeyPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(nil, nil)
	handler := limiter.Middleware("missing")(okHandler())
	for i := 0; i < 5; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, res.Code)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"instructions": {RequestsPerMinute: 1, Burst: 1},
	}, nil)
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }

	limiter.obtainLimiter("a", RateLimit{RequestsPerMinute: 1})
	require.Len(t, limiter.visitors, 1)

	now = now.Add(10 * time.Minute)
	limiter.obtainLimiter("b", RateLimit{RequestsPerMinute: 1})
	require.Len(t, limiter.visitors, 1)
	require.Contains(t, limiter.visitors, "b")
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4242"
	require.Equal(t, "203.0.113.7", clientID(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	require.Equal(t, "198.51.100.1", clientID(req))

	req.Header.Set("X-Real-IP", "192.0.2.9")
	require.Equal(t, "192.0.2.9", clientID(req))
}
