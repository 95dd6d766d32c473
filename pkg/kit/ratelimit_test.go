package kit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiter_WindowSlides(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("1.2.3.4") || !l.Allow("1.2.3.4") {
		t.Fatalf("first two hits must pass")
	}
	if l.Allow("1.2.3.4") {
		t.Fatalf("third hit inside window must be limited")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatalf("other key must not be limited")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("1.2.3.4") {
		t.Fatalf("hit after window must pass")
	}
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	l.TrustForwardedFor = true
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(xff string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/session", nil)
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("10.0.0.1, 10.0.0.2"); rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
	rec := do("10.0.0.1, 10.0.0.3")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("retry-after=%q", rec.Header().Get("Retry-After"))
	}
	if rec := do("10.0.0.9"); rec.Code != http.StatusNoContent {
		t.Fatalf("trusted proxy hop must be its own key, status=%d", rec.Code)
	}
}

func TestIPRateLimiter_IgnoresForwardedForByDefault(t *testing.T) {
	l := NewIPRateLimiter(2, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	allowed := 0
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodPost, "/session", nil)
		req.RemoteAddr = "203.0.113.7:41000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			allowed++
		}
	}

	if allowed != 2 {
		t.Fatalf("allowed=%d want=2", allowed)
	}
	if n := l.Len(); n != 1 {
		t.Fatalf("tracked keys=%d want=1", n)
	}
}

func TestIPRateLimiter_ForgetsExpiredKeys(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 500; i++ {
		l.Allow(fmt.Sprintf("10.1.%d.%d", i/256, i%256))
	}
	if n := l.Len(); n != 500 {
		t.Fatalf("tracked keys=%d want=500", n)
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("192.0.2.1") {
		t.Fatalf("fresh key must pass")
	}
	if n := l.Len(); n != 1 {
		t.Fatalf("tracked keys after window=%d want=1", n)
	}
}

func TestMetricsAuth(t *testing.T) {
	h := MetricsAuth("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusForbidden},
		{"wrong", "Bearer nope", http.StatusForbidden},
		{"ok", "Bearer s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status=%d want=%d", rec.Code, tc.want)
			}
		})
	}
}
