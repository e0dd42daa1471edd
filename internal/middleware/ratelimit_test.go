package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pathik-bd/pathik-api/internal/config"
)

func TestParseBucket(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		allowed bool
		rem     int64
		retry   int64
		ok      bool
	}{
		{"allowed", []interface{}{int64(1), int64(119), int64(0)}, true, 119, 0, true},
		{"blocked", []interface{}{int64(0), int64(0), int64(750)}, false, 0, 750, true},
		{"short", []interface{}{int64(1)}, false, 0, 0, false},
		{"string member", []interface{}{"1", int64(0), int64(0)}, false, 0, 0, false},
		{"not array", "OK", false, 0, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			allowed, rem, retry, ok := parseBucket(tc.in)
			if allowed != tc.allowed || rem != tc.rem || retry != tc.retry || ok != tc.ok {
				t.Fatalf("got %v %d %d %v", allowed, rem, retry, ok)
			}
		})
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	newCtx := func(userID string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/v1/leaderboard", nil)
		req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
		c := e.NewContext(req, httptest.NewRecorder())
		if userID != "" {
			c.Set(ctxUserID, userID)
		}
		return c
	}
	tests := []struct {
		strategy string
		user     string
		want     string
	}{
		{"", "", "pathik:rl:public:ip:203.0.113.7"},
		{"", "u1", "pathik:rl:public:user:u1"},
		{"ip", "u1", "pathik:rl:public:ip:203.0.113.7"},
		{"user", "", "pathik:rl:public:user:anon"},
	}
	for _, tc := range tests {
		cfg := config.RateLimitConfig{Prefix: "pathik:rl", KeyStrategy: tc.strategy}
		if got := rateKey(cfg, "public", newCtx(tc.user)); got != tc.want {
			t.Errorf("strategy %q user %q: key = %s, want %s", tc.strategy, tc.user, got, tc.want)
		}
	}
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	for _, cfg := range []config.RateLimitConfig{{Enabled: false}, {Enabled: true}} {
		mw := NewTokenBucket(cfg, nil, "public")
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if err := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c); err != nil {
			t.Fatal(err)
		}
		if rec.Code != http.StatusNoContent || rec.Header().Get("X-RateLimit-Limit") != "" {
			t.Fatalf("limiter active without redis: %d %v", rec.Code, rec.Header())
		}
	}
}
