package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the configuration for rate limiting
type RateLimitConfig struct {
	// Requests is the sustained number of requests allowed per Window
	Requests int
	// Window is the time window Requests is measured over
	Window time.Duration
	// Burst allows short spikes above the sustained rate (defaults to Requests)
	Burst int
	// KeyFunc is a function that returns a unique key for rate limiting (defaults to IP)
	KeyFunc func(c echo.Context) string
	// Message is the error message returned when rate limit is exceeded
	Message string
}

// limiterEntry is a token bucket for one key
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token bucket limiter
type RateLimiter struct {
	config RateLimitConfig
	limit  rate.Limit
	store  map[string]*limiterEntry
	mu     sync.Mutex
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c echo.Context) string {
			return c.RealIP()
		}
	}
	if config.Message == "" {
		config.Message = "Too many requests. Please try again later."
	}
	if config.Requests <= 0 {
		config.Requests = 1
	}
	if config.Window <= 0 {
		config.Window = time.Second
	}
	if config.Burst <= 0 {
		config.Burst = config.Requests
	}

	rl := &RateLimiter{
		config: config,
		limit:  rate.Every(config.Window / time.Duration(config.Requests)),
		store:  make(map[string]*limiterEntry),
	}

	go rl.cleanup()

	return rl
}

// Allow reports whether a request for key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	entry, ok := rl.store[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.config.Burst)}
		rl.store[key] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl.Allow(rl.config.KeyFunc(c)) {
				return next(c)
			}

			if c.Request().Header.Get("HX-Request") == "true" {
				return c.HTML(http.StatusTooManyRequests, `<div class="search-error" role="alert">`+rl.config.Message+`</div>`)
			}
			return echo.NewHTTPError(http.StatusTooManyRequests, rl.config.Message)
		}
	}
}

// cleanup drops buckets idle for longer than the window every minute
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.config.Window)
		for key, entry := range rl.store {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.store, key)
			}
		}
		rl.mu.Unlock()
	}
}

// UserKey keys the limiter on the authenticated user, falling back to IP
func UserKey(c echo.Context) string {
	if user := GetCurrentUser(c); user != nil {
		return "user:" + user.ID
	}
	return c.RealIP()
}

// Pre-configured rate limiters for common use cases

// LoginRateLimiter limits login attempts to 5 per minute per IP
var LoginRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests: 5,
	Window:   1 * time.Minute,
	Message:  "Too many login attempts. Please wait a minute before trying again.",
})

// SearchRateLimiter allows 5 settled searches per second per user with bursts of 10
var SearchRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests: 5,
	Window:   1 * time.Second,
	Burst:    10,
	KeyFunc:  UserKey,
	Message:  "Searching too fast. Please slow down.",
})

// APIRateLimiter limits general API requests to 60 per minute per IP
var APIRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests: 60,
	Window:   1 * time.Minute,
	Message:  "Rate limit exceeded. Please slow down your requests.",
})
