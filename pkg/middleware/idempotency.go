package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/session"
	"sync"
	"time"
)

const (
	HeaderIdempotentReplay = "Idempotent-Replay"

	maxSweepInterval = time.Hour
)

type IdempotencyStore interface {
	// Begin claims key for a new request. It returns the cached response when
	// one exists, or inFlight=true when another request holds the claim.
	Begin(key, fingerprint string) (cached *CachedResponse, inFlight bool)
	// Finish stores the response for a claimed key, or releases the claim when response is nil.
	Finish(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	Fingerprint string
	CreatedAt   time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	done     map[string]*CachedResponse
	pending  map[string]struct{}
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		done:    make(map[string]*CachedResponse),
		pending: make(map[string]struct{}),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go store.sweep(min(ttl, maxSweepInterval))

	return store
}

func (s *InMemoryIdempotencyStore) Begin(key, fingerprint string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.done[key]; ok {
		if s.now().Sub(cached.CreatedAt) <= s.ttl {
			return cached, false
		}
		delete(s.done, key)
	}
	if _, ok := s.pending[key]; ok {
		return nil, true
	}
	s.pending[key] = struct{}{}
	return nil, false
}

func (s *InMemoryIdempotencyStore) Finish(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, key)
	if response == nil {
		return
	}
	response.CreatedAt = s.now()
	s.done[key] = response
}

func (s *InMemoryIdempotencyStore) sweep(interval time.Duration) {
	if interval <= 0 {
		interval = maxSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.done {
				if s.now().Sub(response.CreatedAt) > s.ttl {
					delete(s.done, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key on mutating requests. Keys are scoped to the signed-in user,
// method and path. A duplicate that arrives while the first request is still
// running gets 409, and reusing a key with a different body gets 422.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scopedIdempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			fingerprint, err := fingerprintBody(r)
			if err != nil {
				_ = apperrors.WriteError(w, apperrors.InvalidInput("Could not read request body"))
				return
			}

			cached, inFlight := store.Begin(key, fingerprint)
			switch {
			case inFlight:
				_ = apperrors.WriteError(w, apperrors.Conflict("A request with this idempotency key is still in progress"))
				return
			case cached != nil && cached.Fingerprint != fingerprint:
				_ = apperrors.WriteError(w, apperrors.New(
					apperrors.CodeValidation,
					"Idempotency key was already used for a different request",
					http.StatusUnprocessableEntity,
				))
				return
			case cached != nil:
				replay(w, cached)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			completed := false
			defer func() {
				// Failures and panics release the claim so the client can retry.
				if !completed || capture.statusCode < 200 || capture.statusCode >= 300 {
					store.Finish(key, nil)
					return
				}
				store.Finish(key, &CachedResponse{
					StatusCode:  capture.statusCode,
					Headers:     w.Header().Clone(),
					Body:        bytes.Clone(capture.body.Bytes()),
					Fingerprint: fingerprint,
				})
			}()
			next.ServeHTTP(capture, r)
			completed = true
		})
	}
}

func scopedIdempotencyKey(r *http.Request, headerName string) string {
	key := r.Header.Get(headerName)
	if key == "" || !isMutating(r.Method) {
		return ""
	}
	email, _ := session.EmailFromContext(r.Context())
	return email + "|" + r.Method + "|" + r.URL.Path + "|" + key
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

// fingerprintBody hashes the body and puts it back for the handler.
func fingerprintBody(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(HeaderIdempotentReplay, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
