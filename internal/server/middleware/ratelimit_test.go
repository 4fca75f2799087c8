package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gamelib/pkg/api"
)

// fakeClock - управляемое время для limiter
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T, rate int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(rate, window)
	limiter.now = clock.Now
	t.Cleanup(limiter.Stop)

	return limiter, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("requests within limit are allowed", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)

		for i := 0; i < 5; i++ {
			allowed, _ := limiter.Allow("192.168.1.1")
			assert.True(t, allowed, fmt.Sprintf("request %d should be allowed", i+1))
		}
	})

	t.Run("requests over limit are denied with retry hint", func(t *testing.T) {
		limiter, clock := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			allowed, _ := limiter.Allow("192.168.1.2")
			require.True(t, allowed)
		}

		clock.Advance(20 * time.Second)
		allowed, retryAfter := limiter.Allow("192.168.1.2")
		assert.False(t, allowed)
		assert.Equal(t, 40*time.Second, retryAfter)
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)

		allowed, _ := limiter.Allow("10.0.0.1")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow("10.0.0.1")
		assert.False(t, allowed)

		allowed, _ = limiter.Allow("10.0.0.2")
		assert.True(t, allowed)
	})

	t.Run("limit resets after window", func(t *testing.T) {
		limiter, clock := newTestLimiter(t, 2, time.Minute)

		limiter.Allow("192.168.1.3")
		limiter.Allow("192.168.1.3")
		allowed, _ := limiter.Allow("192.168.1.3")
		require.False(t, allowed)

		clock.Advance(time.Minute)

		allowed, _ = limiter.Allow("192.168.1.3")
		assert.True(t, allowed)
	})
}

func TestRateLimiter_CleanupOldBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(t, 5, time.Minute)

	limiter.Allow("old")
	clock.Advance(90 * time.Second)
	limiter.Allow("fresh")
	clock.Advance(45 * time.Second)

	limiter.cleanupOldBuckets()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.buckets, "old")
	assert.Contains(t, limiter.buckets, "fresh")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestRateLimit_Middleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)

	handler := RateLimit(limiter, setupTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("192.168.1.1:12345").Code)
	// другой порт того же адреса расходует тот же лимит
	assert.Equal(t, http.StatusOK, send("192.168.1.1:23456").Code)

	w := send("192.168.1.1:34567")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, http.StatusText(http.StatusTooManyRequests), resp.Error)

	assert.Equal(t, http.StatusOK, send("192.168.1.2:12345").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "remote addr with port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "ipv6 remote addr", remoteAddr: "[::1]:8080", want: "::1"},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-forwarded-for chain",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2, 10.0.0.3"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
