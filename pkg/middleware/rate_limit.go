package middleware

import (
	"net"
	"net/http"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/session"
	"sync"
	"time"
)

// KeyExtractor picks the identity a request is rate limited under.
type KeyExtractor func(r *http.Request) string

// UserRateLimiter is a sliding-window limiter keyed by the signed-in user,
// falling back to the client address for anonymous requests.
type UserRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor KeyExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func NewUserRateLimiter(limit int, window time.Duration, extractor KeyExtractor, log *logger.Logger) *UserRateLimiter {
	if extractor == nil {
		extractor = DefaultKeyExtractor
	}
	limiter := &UserRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *UserRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *UserRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *UserRateLimiter) Allow(key string) bool {
	if key == "" || rl.limit <= 0 {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[key]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

func UserRateLimit(limiter *UserRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.extractor(r)

			if !limiter.Allow(key) {
				rejectRateLimited(w, limiter.log, r, key)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultKeyExtractor uses the session email set by SessionFromHeader, else
// the remote host.
func DefaultKeyExtractor(r *http.Request) string {
	if email, ok := session.EmailFromContext(r.Context()); ok {
		return "user:" + email
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return ""
	}
	return "addr:" + host
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, key string) {
	log.Warn("Rate limit exceeded",
		"request_id", RequestIDFromContext(r.Context()),
		"key", key,
		"path", r.URL.Path,
	)

	w.Header().Set("Retry-After", "60")
	_ = apperrors.WriteError(w, apperrors.New(
		"RATE_LIMITED",
		"Rate limit exceeded",
		http.StatusTooManyRequests,
	))
}
