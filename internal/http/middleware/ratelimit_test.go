package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-quotes-api/internal/errs"
)

func TestKeyByClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	if key := KeyByClientIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("key = %q, want ip:203.0.113.9", key)
	}
}

func TestNewRateLimiter_BurstCoercionAndReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByClientIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want 1", rl.burst)
	}

	lim := rl.limiter("k1")
	if lim == nil {
		t.Fatal("expected limiter")
	}
	if got := rl.limiter("k1"); got != lim {
		t.Fatal("expected the same bucket for the same key")
	}
	if got := rl.limiter("k2"); got == lim {
		t.Fatal("expected a separate bucket per key")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	rl := NewRateLimiter(1.0, 1, KeyByClientIP())
	rl.now = func() time.Time { return clock }

	_ = rl.limiter("old")
	clock = base.Add(bucketIdleTTL)
	_ = rl.limiter("fresh")

	rl.mu.Lock()
	rl.calls = sweepEveryCalls - 1
	rl.mu.Unlock()

	clock = base.Add(bucketIdleTTL + time.Second)
	_ = rl.limiter("new")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["old"]; ok {
		t.Fatal("idle bucket should have been swept")
	}
	if _, ok := rl.buckets["fresh"]; !ok {
		t.Fatal("recent bucket should survive the sweep")
	}
	if _, ok := rl.buckets["new"]; !ok {
		t.Fatal("requested bucket should be created")
	}
	if rl.calls != 0 {
		t.Fatalf("calls = %d, want reset to 0", rl.calls)
	}
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	cases := []struct {
		rps  float64
		want int
	}{
		{rps: 10, want: 1},
		{rps: 1, want: 1},
		{rps: 0.5, want: 2},
		{rps: 0.3, want: 4},
		{rps: 0, want: 60},
	}
	for _, tc := range cases {
		if got := NewRateLimiter(tc.rps, 1, KeyByClientIP()).retryAfter(); got != tc.want {
			t.Errorf("retryAfter(rps=%v) = %d, want %d", tc.rps, got, tc.want)
		}
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if IsRateBypass(c) {
		t.Fatal("bypass should default to false")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatal("bypass should be true once flagged")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatal("non-bool flag should read as false")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(0.5, 1, KeyByClientIP())
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/quotes", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/quotes", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/quotes", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After = %q, want 2", got)
	}
	if got := w2.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Fatalf("X-RateLimit-Limit = %q, want 1", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["success"] != false || body["code"] != "rate_limited" || body["message"] != errs.RateLimited.Message() {
		t.Fatalf("unexpected body: %v", body)
	}

	// A replay flagged upstream skips the exhausted bucket.
	rb := gin.New()
	rb.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	rb.Use(rl.Handler())
	rb.GET("/quotes", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w3 := httptest.NewRecorder()
	rb.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/quotes", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("bypassed request: got %d, want 200", w3.Code)
	}
}
