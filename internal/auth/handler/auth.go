package handler

import (
	"encoding/json"
	"net/http"

	"staybook/internal/auth/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityResponse tells the caller which email to send as X-User-Email.
type IdentityResponse struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

type AuthHandler struct {
	auth service.Authenticator
	log  *logger.Logger
}

func NewAuthHandler(auth service.Authenticator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Register", apperrors.InvalidInput("Invalid request body"))
		return
	}

	email, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, identity(email)); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Login", apperrors.InvalidInput("Invalid request body"))
		return
	}

	email, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, identity(email)); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func identity(email string) IdentityResponse {
	return IdentityResponse{Email: email, UserID: sanitizer.UserIDFromEmail(email)}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AuthHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/register", h.Register)
	router.POST("/api/v1/auth/login", h.Login)
}
