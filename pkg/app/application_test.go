package app

import (
	"net/http"
	"net/http/httptest"
	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/contracts"
	"staybook/pkg/docstore/memory"
	"staybook/pkg/logger"
	"staybook/pkg/session"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

func whoami(router *httprouter.Router) {
	router.GET("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		email, ok := session.EmailFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(email))
	})
}

func panics(router *httprouter.Router) {
	router.GET("/api/v1/panic", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		panic("boom")
	})
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	c := client.NewClient()
	c.SetStore(memory.New())
	cfg := &config.Config{
		Port:              "8080",
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		Log:               logger.Discard(),
		Client:            c,
	}

	a := NewApplication()
	a.SetApp(cfg, contracts.RoutesFunc(whoami), contracts.RoutesFunc(panics))
	t.Cleanup(a.Stop)
	return a
}

func TestApplication_RoutesEveryHandler(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set(session.HeaderUserEmail, "Guest@Example.com")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "guest@example.com" {
		t.Errorf("session middleware should normalize the email, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected recovered panic to yield 500, got %d", rec.Code)
	}
}

func TestApplication_Health(t *testing.T) {
	a := newTestApp(t)

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
