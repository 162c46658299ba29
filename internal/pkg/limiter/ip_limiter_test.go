package limiter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roomchat/internal/pkg/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard, zerolog.Disabled)
	os.Exit(m.Run())
}

func newTestLimiter(t *testing.T, r rate.Limit, b int) *IPRateLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewIPRateLimiter(ctx, r, b)
}

func TestAllowPerIP(t *testing.T) {
	l := newTestLimiter(t, rate.Every(time.Hour), 2)

	for n := range 2 {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected within burst", n+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request over burst allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other IP rejected")
	}
	if l.GetLimiter("10.0.0.1") != l.GetLimiter("10.0.0.1") {
		t.Error("GetLimiter() returned different limiters for the same IP")
	}
}

func TestSweepDropsIdleLimiters(t *testing.T) {
	l := newTestLimiter(t, rate.Every(time.Second), 1)

	l.GetLimiter("idle")
	l.Allow("busy")

	removed, remaining := l.sweep(time.Now())
	if removed != 1 || remaining != 1 {
		t.Fatalf("sweep() = (%d, %d), want (1, 1)", removed, remaining)
	}

	removed, remaining = l.sweep(time.Now().Add(time.Minute))
	if removed != 1 || remaining != 0 {
		t.Fatalf("later sweep() = (%d, %d), want (1, 0)", removed, remaining)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
}

func TestMiddleware(t *testing.T) {
	l := newTestLimiter(t, rate.Every(time.Hour), 1)

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "192.0.2.7:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct{ remote, want string }{
		{"192.0.2.7:5555", "192.0.2.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.9", "203.0.113.9"},
		{"", "unknown_ip"},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		if got := ClientIP(r); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
