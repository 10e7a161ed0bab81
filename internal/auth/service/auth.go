package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	autherrors "staybook/internal/auth/errors"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const UsersRoot = "users"

// Authenticator checks credentials against users/{userId}. It never touches
// the session; callers sign the user in on success.
type Authenticator interface {
	// Authenticate returns the normalized email for valid credentials.
	Authenticate(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, name, password string) (string, error)
}

type registration struct {
	Email    string `validate:"required,email,max=254"`
	Name     string `validate:"max=100"`
	Password string `validate:"required,min=6,max=72"`
}

type authenticator struct {
	store    docstore.Store
	validate *validator.Validate
	cfg      *config.Config
	cost     int
}

func NewAuthenticator(store docstore.Store, cfg *config.Config) Authenticator {
	return &authenticator{
		store:    store,
		validate: validator.New(),
		cfg:      cfg,
		cost:     bcrypt.DefaultCost,
	}
}

func UserPath(email string) string {
	return docstore.Join(UsersRoot, sanitizer.UserIDFromEmail(email))
}

func (a *authenticator) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", apperrors.InvalidInput("email and password are required")
	}
	if err := docstore.ValidateSegment(sanitizer.UserIDFromEmail(email)); err != nil {
		return "", invalidCredentials()
	}

	user, err := a.find(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !strings.EqualFold(user.Email, email) {
		a.cfg.Log.Info("Sign-in rejected", "email", email, "reason", "unknown user")
		return "", invalidCredentials()
	}

	switch {
	case user.PasswordHash != "":
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			a.cfg.Log.Info("Sign-in rejected", "email", email, "reason", "wrong password")
			return "", invalidCredentials()
		}
	case user.Password != "" && user.Password == password:
		a.upgrade(ctx, email, user, password)
	default:
		a.cfg.Log.Info("Sign-in rejected", "email", email, "reason", "wrong password")
		return "", invalidCredentials()
	}

	a.cfg.Log.Info("User signed in", "email", email)
	return email, nil
}

func (a *authenticator) Register(ctx context.Context, email, name, password string) (string, error) {
	req := registration{
		Email:    sanitizer.NormalizeEmail(email),
		Name:     sanitizer.TrimAndNormalize(name),
		Password: password,
	}
	if err := a.validate.Struct(req); err != nil {
		return "", apperrors.Validation("Registration validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	if err := docstore.ValidateSegment(sanitizer.UserIDFromEmail(req.Email)); err != nil {
		return "", apperrors.Validation("Registration validation failed", map[string]any{
			"error": fmt.Sprintf("email cannot be used as an identity: %v", err),
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return "", apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{Email: req.Email, Name: req.Name, PasswordHash: string(hash)}
	wctx, cancel := docstore.WithTimeout(ctx, a.cfg.StoreWriteTimeout)
	defer cancel()

	if err := a.store.Create(wctx, UserPath(req.Email), user); err != nil {
		if errors.Is(err, docstore.ErrExists) {
			return "", apperrors.Wrap(autherrors.ErrUserExists, apperrors.CodeConflict, "User already registered", http.StatusConflict)
		}
		a.cfg.Log.Error("Failed to register user", "email", req.Email, "error", err)
		return "", apperrors.Transport("Failed to register user", err)
	}

	a.cfg.Log.Info("User registered", "email", req.Email, "user_id", sanitizer.UserIDFromEmail(req.Email))
	return req.Email, nil
}

func (a *authenticator) find(ctx context.Context, email string) (*model.User, error) {
	snap, err := docstore.GetWithRetry(ctx, a.store, UserPath(email), docstore.RetryPolicy{
		Retries: a.cfg.StoreReadRetries,
		Backoff: a.cfg.StoreRetryBackoff,
		Timeout: a.cfg.StoreReadTimeout,
	})
	if err != nil {
		a.cfg.Log.Error("Failed to read user", "email", email, "error", err)
		return nil, apperrors.Transport("Failed to read user", err)
	}
	if !snap.Exists() || !snap.IsObject() {
		return nil, nil
	}
	var user model.User
	if err := snap.Decode(&user); err != nil {
		return nil, nil
	}
	return &user, nil
}

// upgrade replaces a plaintext password with its hash. Failures only delay
// the upgrade to the next sign-in.
func (a *authenticator) upgrade(ctx context.Context, email string, user *model.User, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		a.cfg.Log.Warn("Failed to hash legacy password", "email", email, "error", err)
		return
	}
	user.PasswordHash = string(hash)
	user.Password = ""

	wctx, cancel := docstore.WithTimeout(ctx, a.cfg.StoreWriteTimeout)
	defer cancel()
	if err := a.store.Set(wctx, UserPath(email), user); err != nil {
		a.cfg.Log.Warn("Failed to upgrade legacy password", "email", email, "error", err)
		return
	}
	a.cfg.Log.Info("Upgraded legacy password", "email", email)
}

func invalidCredentials() *apperrors.AppError {
	return apperrors.Wrap(autherrors.ErrInvalidCredentials, apperrors.CodeUnauthorized, "Invalid email or password", http.StatusUnauthorized)
}
