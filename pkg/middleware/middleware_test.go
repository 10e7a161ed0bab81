package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/session"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code
}

func TestSessionFromHeader(t *testing.T) {
	var got string
	h := SessionFromHeader()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.EmailFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(session.HeaderUserEmail, "  A@B.com ")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "a@b.com" {
		t.Errorf("expected normalized email, got %q", got)
	}

	got = "unchanged"
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "" {
		t.Errorf("expected no email without the header, got %q", got)
	}
}

func TestUserRateLimit(t *testing.T) {
	limiter := NewUserRateLimiter(2, time.Minute, nil, logger.Discard())
	defer limiter.Stop()
	h := SessionFromHeader()(UserRateLimit(limiter)(okHandler()))

	send := func(email string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		req.Header.Set(session.HeaderUserEmail, email)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if send("a@b.com") != http.StatusOK || send("a@b.com") != http.StatusOK {
		t.Fatal("first two requests should pass")
	}
	if code := send("a@b.com"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", code)
	}
	if code := send("other@b.com"); code != http.StatusOK {
		t.Errorf("other users are limited separately, got %d", code)
	}
}

func TestDefaultKeyExtractor_FallsBackToAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	if key := DefaultKeyExtractor(req); key != "addr:10.0.0.7" {
		t.Errorf("unexpected key %q", key)
	}
}

func TestIdempotency_ScopedToUser(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"key":"k"}}`))
	})
	h := SessionFromHeader()(Idempotency(store, "")(inner))

	send := func(email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "abc")
		req.Header.Set(session.HeaderUserEmail, email)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("a@b.com")
	second := send("a@b.com")
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("unexpected codes %d %d", first.Code, second.Code)
	}
	if second.Header().Get(HeaderIdempotentReplay) != "true" {
		t.Error("second response should be a replay")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected one handler call, got %d", calls)
	}

	send("c@d.com")
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("another user's identical key must not replay, calls=%d", calls)
	}
}

func TestIdempotency_FailuresAreNotCached(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = apperrors.WriteError(w, apperrors.Transport("store down", nil))
	})
	h := Idempotency(store, "")(inner)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/key/k", nil)
		req.Header.Set("Idempotency-Key", "retry-me")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("retryable failures must reach the handler again, calls=%d", calls)
	}
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMaxRequestSize(t *testing.T) {
	h := MaxRequestSize(8)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"too":"large body"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != apperrors.CodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", code)
	}
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != apperrors.CodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", code)
	}
}

func TestRequestLogging_EchoesRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-42" || rec.Header().Get(HeaderRequestID) != "req-42" {
		t.Errorf("expected request id to be reused, got %q / %q", seen, rec.Header().Get(HeaderRequestID))
	}
}

func TestIdempotency_RejectsDifferentBodyAndInFlightDuplicates(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	release := make(chan struct{})
	entered := make(chan struct{})
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Block") != "" {
			close(entered)
			<-release
		}
		w.WriteHeader(http.StatusCreated)
	})
	h := Idempotency(store, "")(inner)

	send := func(body string, block bool) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "k1")
		if block {
			req.Header.Set("X-Block", "1")
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	done := make(chan int)
	go func() { done <- send(`{"a":1}`, true) }()
	<-entered

	if code := send(`{"a":1}`, false); code != http.StatusConflict {
		t.Errorf("duplicate while in flight: expected 409, got %d", code)
	}
	close(release)
	if code := <-done; code != http.StatusCreated {
		t.Fatalf("first request: expected 201, got %d", code)
	}

	if code := send(`{"a":2}`, false); code != http.StatusUnprocessableEntity {
		t.Errorf("different body: expected 422, got %d", code)
	}
	if code := send(`{"a":1}`, false); code != http.StatusCreated {
		t.Errorf("same body: expected replayed 201, got %d", code)
	}
}

func TestInMemoryIdempotencyStore_Expires(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if _, inFlight := store.Begin("k", ""); inFlight {
		t.Fatal("fresh key should not be in flight")
	}
	store.Finish("k", &CachedResponse{StatusCode: http.StatusCreated})

	if cached, _ := store.Begin("k", ""); cached == nil {
		t.Fatal("expected cached response within ttl")
	}

	now = now.Add(2 * time.Minute)
	cached, inFlight := store.Begin("k", "")
	if cached != nil || inFlight {
		t.Errorf("expired entry should be claimable again, got cached=%v inFlight=%v", cached, inFlight)
	}
}

func TestRequestTimeout_PanicReachesRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("inside timeout")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRequestTimeout_HandlerHeadersSurvive(t *testing.T) {
	h := RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/api/v1/bookings")
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusCreated || rec.Header().Get("Location") != "/api/v1/bookings" {
		t.Errorf("unexpected response %d %v", rec.Code, rec.Header())
	}
}
