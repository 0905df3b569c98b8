package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/diagnosis/numerology-appointments/pkg/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"ok"}`))
})

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	h := RequestID(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Fatalf("expected echoed id abc, got %q", got)
	}
}

func TestRecoverer_ReturnsGenericError(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "Something went wrong!" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCORS_Allowlist(t *testing.T) {
	h := CORS([]string{"https://mummy-website.vercel.app", "http://localhost:5173"})(okHandler)

	tests := []struct {
		name        string
		origin      string
		method      string
		wantAllowed bool
	}{
		{"allowed origin POST", "http://localhost:5173", http.MethodPost, true},
		{"allowed origin GET", "https://mummy-website.vercel.app", http.MethodGet, true},
		{"unknown origin", "https://evil.example", http.MethodPost, false},
		{"disallowed method", "http://localhost:5173", http.MethodDelete, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/send-meeting-link", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", tt.method)
			req.Header.Set("Access-Control-Request-Headers", "Content-Type")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllowed && got != tt.origin {
				t.Fatalf("expected origin %q to be allowed, got %q", tt.origin, got)
			}
			if !tt.wantAllowed && got != "" {
				t.Fatalf("expected no CORS grant, got %q", got)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := Health(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetrics_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	h := Metrics(reg)(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "test_total 1") {
		t.Fatalf("metric missing from exposition: %s", rec.Body.String())
	}
}

func TestOptionalIdentity(t *testing.T) {
	var seen *auth.Identity
	h := OptionalIdentity("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFrom(r.Context())
	}))

	tok, _ := auth.NewIdentityToken(auth.Identity{Name: "Asha", Email: "a@x.com"}, "secret", time.Minute)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == nil || seen.Email != "a@x.com" {
		t.Fatalf("expected identity, got %+v", seen)
	}

	seen = nil
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != nil || rec.Code != http.StatusOK {
		t.Fatalf("invalid token must pass through without identity, got %+v %d", seen, rec.Code)
	}
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	_, client := newRedis(t)
	var calls int32
	h := Idempotency(NewRedisIdempotencyStore(client))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meetLink":"https://meet.example/1"}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/send-meeting-link", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, rec.Code)
		}
		body, _ := io.ReadAll(rec.Body)
		if string(body) != `{"meetLink":"https://meet.example/1"}` {
			t.Fatalf("attempt %d: unexpected body %s", i, body)
		}
	}
	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
}

func TestIdempotency_FailureReleasesKey(t *testing.T) {
	_, client := newRedis(t)
	var calls int32
	h := Idempotency(NewRedisIdempotencyStore(client))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/send-meeting-link", nil)
		req.Header.Set("Idempotency-Key", "k2")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("failed requests must be retryable, handler ran %d times", calls)
	}
}

func TestIdempotency_PanicReleasesKey(t *testing.T) {
	_, client := newRedis(t)
	store := NewRedisIdempotencyStore(client)
	panicking := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should keep unwinding past the idempotency layer")
			}
		}()
		req := httptest.NewRequest(http.MethodPost, "/api/send-meeting-link", nil)
		req.Header.Set("Idempotency-Key", "k4")
		panicking.ServeHTTP(httptest.NewRecorder(), req)
	}()

	req := httptest.NewRequest(http.MethodPost, "/api/send-meeting-link", nil)
	req.Header.Set("Idempotency-Key", "k4")
	rec := httptest.NewRecorder()
	Idempotency(store)(okHandler).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("key should be free after a panic, got %d", rec.Code)
	}
}

func TestIdempotency_InFlightConflict(t *testing.T) {
	_, client := newRedis(t)
	store := NewRedisIdempotencyStore(client)
	h := Idempotency(store)(okHandler)

	// a duplicate arrives while the first request is still being handled
	req := httptest.NewRequest(http.MethodPost, "/api/send-meeting-link", nil)
	req.Header.Set("Idempotency-Key", "k3")
	rec := httptest.NewRecorder()

	blocking := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner := httptest.NewRequest(http.MethodPost, "/api/send-meeting-link", nil)
		inner.Header.Set("Idempotency-Key", "k3")
		innerRec := httptest.NewRecorder()
		h.ServeHTTP(innerRec, inner)
		if innerRec.Code != http.StatusConflict {
			t.Errorf("expected 409 for concurrent duplicate, got %d", innerRec.Code)
		}
		w.Write([]byte(`{}`))
	}))
	blocking.ServeHTTP(rec, req)
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	_, client := newRedis(t)
	var calls int32
	h := Idempotency(NewRedisIdempotencyStore(client))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls without key, got %d", calls)
	}
}

func TestRateLimiter(t *testing.T) {
	mr, client := newRedis(t)
	rl := NewRateLimiter(client, 2, time.Minute)
	h := rl.Middleware()(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/send-meeting-link", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}
	if ttl := mr.TTL("ratelimit:ip:10.0.0.1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("window key should carry its expiry, got ttl %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	ok, err := rl.Allow(context.Background(), "ip:10.0.0.1")
	if err != nil || !ok {
		t.Fatalf("window should have reset: ok=%v err=%v", ok, err)
	}
}

func TestRateLimiter_NilDisabled(t *testing.T) {
	var rl *RateLimiter
	h := rl.Middleware()(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("nil limiter should pass through, got %d", rec.Code)
	}
}
