package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// RateLimitConfig defines the limit for a route group.
type RateLimitConfig struct {
	Name   string                   // Label used in logs
	Max    int                      // Maximum requests allowed in the window
	Window time.Duration            // Time window for the limit
	KeyFn  func(c fiber.Ctx) string // Returns the key to rate limit on
}

// window tracks request count and window end for a single key.
type window struct {
	count int
	end   time.Time
}

// RateLimiter is an in-memory fixed-window rate limiter. It protects the routes
// that call the rating engine, whose work is far more expensive than ours.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	config  RateLimitConfig
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a rate limiter with the given config. Call Stop to end
// its cleanup goroutine.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFn == nil {
		cfg.KeyFn = KeyByIP
	}
	rl := &RateLimiter{
		windows: make(map[string]*window),
		config:  cfg,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.cleanup(5 * time.Minute)
	return rl
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		allowed, remaining, resetAt := rl.take(rl.config.KeyFn(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(resetAt.Sub(rl.now()).Seconds()) + 1
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			Logger.Warn().
				Str("limiter", rl.config.Name).
				Str("path", sanitizePath(c.Path())).
				Msg("rate limited")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "RATE_LIMITED",
					"message": fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
					"details": fiber.Map{"retry_after": retryAfter},
				},
			})
		}
		return c.Next()
	}
}

// Allow reports whether one more request under key fits the limit.
func (rl *RateLimiter) Allow(key string) bool {
	allowed, _, _ := rl.take(key)
	return allowed
}

func (rl *RateLimiter) take(key string) (allowed bool, remaining int, resetAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(rl.config.Window)}
		rl.windows[key] = w
	}
	w.count++
	return w.count <= rl.config.Max, max(rl.config.Max-w.count, 0), w.end
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, w := range rl.windows {
				if now.After(w.end) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// KeyByIP returns the client IP as the rate limit key.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// NewSimulationRateLimiter: 30 req/min per IP for interpret and what-if routes.
func NewSimulationRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Name:   "simulation",
		Max:    30,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}

// NewDetectionRateLimiter: 10 req/min per IP for full detection passes and rating.
func NewDetectionRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Name:   "detection",
		Max:    10,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}
