package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type mockAuthenticator struct {
	authenticateFunc func(ctx context.Context, email, password string) (string, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, email, password string) (string, error) {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, email, password)
	}
	return strings.ToLower(email), nil
}

func (m *mockAuthenticator) Register(ctx context.Context, email, name, password string) (string, error) {
	return strings.ToLower(email), nil
}

func newRouter(auth *mockAuthenticator) *httprouter.Router {
	router := httprouter.New()
	NewAuthHandler(auth, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestLogin_ReturnsIdentity(t *testing.T) {
	router := newRouter(&mockAuthenticator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"A@B.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data IdentityResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Email != "a@b.com" || body.Data.UserID != "a@b_com" {
		t.Errorf("unexpected identity %+v", body.Data)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router := newRouter(&mockAuthenticator{
		authenticateFunc: func(ctx context.Context, email, password string) (string, error) {
			return "", apperrors.Unauthorized("Invalid email or password")
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.com","password":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRegister_Created(t *testing.T) {
	router := newRouter(&mockAuthenticator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"a@b.com","name":"A","password":"secret1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestRegister_BadBody(t *testing.T) {
	router := newRouter(&mockAuthenticator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`nope`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
