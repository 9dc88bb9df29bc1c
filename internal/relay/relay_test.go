package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/fretes/internal/config"
)

type seen struct {
	body  string
	ctype string
	calls int
}

func fakeBackend(t *testing.T, status int, reply string) (*httptest.Server, *seen) {
	t.Helper()
	var s seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		s.body = string(raw)
		s.ctype = r.Header.Get("Content-Type")
		s.calls++
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &s
}

func relayConfig(backend string) config.Relay {
	return config.Relay{
		Path:       "/api",
		BackendURL: backend,
		Timeout:    5 * time.Second,
	}
}

func do(t *testing.T, r *Relay, method, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var b errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("error body is not JSON: %q", rec.Body.String())
	}
	return b
}

// ============================================================
// Method handling
// ============================================================

func TestPreflight(t *testing.T) {
	r := New(relayConfig("http://unused"))
	rec := do(t, r, http.MethodOptions, "", map[string]string{"Origin": "https://app.example"})

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	h := rec.Header()
	if h.Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Errorf("origin = %q", h.Get("Access-Control-Allow-Origin"))
	}
	if h.Get("Access-Control-Allow-Methods") != "POST, OPTIONS" {
		t.Errorf("methods = %q", h.Get("Access-Control-Allow-Methods"))
	}
	if h.Get("Access-Control-Allow-Headers") != "Content-Type, X-Proxy-Secret" {
		t.Errorf("headers = %q", h.Get("Access-Control-Allow-Headers"))
	}
	if h.Get("Access-Control-Max-Age") != "86400" || h.Get("Vary") != "Origin" {
		t.Errorf("max-age/vary = %q %q", h.Get("Access-Control-Max-Age"), h.Get("Vary"))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	r := New(relayConfig("http://unused"))
	rec := do(t, r, http.MethodGet, "", nil)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	b := decodeError(t, rec)
	if b.Success || b.Message != "Method not allowed" {
		t.Errorf("body = %+v", b)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("origin without request Origin should be *")
	}
	if rec.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestMissingBackendURL(t *testing.T) {
	r := New(relayConfig(""))
	rec := do(t, r, http.MethodPost, `{}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeError(t, rec).Message != "Missing APPS_SCRIPT_URL env var" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// ============================================================
// Shared secret
// ============================================================

func TestSharedSecret(t *testing.T) {
	srv, s := fakeBackend(t, 200, `{"success":true}`)
	cfg := relayConfig(srv.URL)
	cfg.SharedSecret = "s3cret"
	r := New(cfg)

	tests := []struct {
		name   string
		secret string
		status int
	}{
		{"missing", "", http.StatusForbidden},
		{"wrong", "nope", http.StatusForbidden},
		{"right", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.secret != "" {
				headers["X-Proxy-Secret"] = tt.secret
			}
			rec := do(t, r, http.MethodPost, `{"action":"init"}`, headers)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusForbidden && decodeError(t, rec).Message != "Forbidden" {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
	if s.calls != 1 {
		t.Errorf("backend reached %d times, want 1", s.calls)
	}
}

// ============================================================
// Forwarding
// ============================================================

func TestForwardMirrorsBackend(t *testing.T) {
	srv, s := fakeBackend(t, 201, `{"success":false,"message":"PIN inválido."}`)
	r := New(relayConfig(srv.URL))

	rec := do(t, r, http.MethodPost, `{"action":"login","payload":{"email":"a@b"}}`, map[string]string{
		"Content-Type": "text/plain",
		"Origin":       "https://app.example",
	})
	if rec.Code != 201 {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.String() != `{"success":false,"message":"PIN inválido."}` {
		t.Errorf("body = %s", rec.Body.String())
	}
	if s.body != `{"action":"login","payload":{"email":"a@b"}}` {
		t.Errorf("forwarded body = %s", s.body)
	}
	if s.ctype != "application/json" {
		t.Errorf("forwarded content type = %q", s.ctype)
	}
	h := rec.Header()
	if h.Get("Cache-Control") != "no-store" || h.Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Errorf("headers = %v", h)
	}
}

func TestForwardEmptyBody(t *testing.T) {
	srv, s := fakeBackend(t, 200, `{"success":true}`)
	r := New(relayConfig(srv.URL))
	do(t, r, http.MethodPost, "", nil)
	if s.body != "{}" {
		t.Errorf("forwarded body = %q", s.body)
	}
}

func TestForwardTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := do(t, New(relayConfig(url)), http.MethodPost, `{}`, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeError(t, rec).Message; !strings.HasPrefix(msg, "Proxy fetch failed: ") {
		t.Errorf("message = %q", msg)
	}
}

func TestOtherPathNotServed(t *testing.T) {
	r := New(relayConfig("http://unused"))
	req := httptest.NewRequest(http.MethodPost, "/elsewhere", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

// ============================================================
// Rate limiting
// ============================================================

type countingLimiter struct {
	limit int
	seen  map[string]int
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.err != nil {
		return true, 0, l.err
	}
	l.seen[key]++
	return l.seen[key] <= l.limit, 30 * time.Second, nil
}

func TestRateLimit(t *testing.T) {
	srv, s := fakeBackend(t, 200, `{"success":true}`)
	lim := &countingLimiter{limit: 2, seen: map[string]int{}}
	r := New(relayConfig(srv.URL), WithLimiter(lim))

	for i := 0; i < 2; i++ {
		if rec := do(t, r, http.MethodPost, `{}`, nil); rec.Code != 200 {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := do(t, r, http.MethodPost, `{}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Errorf("retry-after = %q", rec.Header().Get("Retry-After"))
	}
	if decodeError(t, rec).Success {
		t.Error("success should be false")
	}
	if s.calls != 2 {
		t.Errorf("backend calls = %d", s.calls)
	}

	// Preflight is never limited.
	if rec := do(t, r, http.MethodOptions, "", nil); rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
}

func TestRateLimitErrorFailsOpen(t *testing.T) {
	srv, _ := fakeBackend(t, 200, `{"success":true}`)
	lim := &countingLimiter{err: errors.New("redis down")}
	rec := do(t, New(relayConfig(srv.URL), WithLimiter(lim)), http.MethodPost, `{}`, nil)
	if rec.Code != 200 {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestWindowKey(t *testing.T) {
	l := NewRedisLimiter(nil, 60)
	now := time.Date(2024, 3, 10, 12, 0, 45, 0, time.UTC)
	key, retry := l.windowKey("10.0.0.1", now)
	if !strings.HasPrefix(key, "fretes:rl:10.0.0.1:") {
		t.Errorf("key = %q", key)
	}
	if retry != 15*time.Second {
		t.Errorf("retry = %v", retry)
	}
	next, _ := l.windowKey("10.0.0.1", now.Add(20*time.Second))
	if next == key {
		t.Error("a new minute should use a new window")
	}
}

func TestNewRedisClientWithoutAddr(t *testing.T) {
	if NewRedisClient("") != nil {
		t.Error("empty address should not connect")
	}
}
