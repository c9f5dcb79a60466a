package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// Idle clients are forgotten after this long
	TTL time.Duration
}

// DefaultRateLimitConfig keeps audits cheap for a single caller, since each
// one costs an upstream fetch and a model call.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 2,
		Burst:             5,
		TTL:               10 * time.Minute,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per client IP
type RateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewRateLimiter creates a limiter and starts its sweeper. Call Close to
// stop it.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimitConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerSecond
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRateLimitConfig().TTL
	}
	rl := &RateLimiter{
		cfg:     cfg,
		clients: make(map[string]*client),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow reports whether the client identified by key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)}
		rl.clients[key] = c
	}
	c.lastSeen = rl.now()
	limiter := c.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Handler returns the per-IP gin middleware
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				audit.ErrorResult("too many requests; slow down and try again shortly"))
			return
		}
		c.Next()
	}
}

// Close stops the sweeper
func (rl *RateLimiter) Close() {
	rl.once.Do(func() {
		close(rl.stop)
		<-rl.done
	})
}

func (rl *RateLimiter) sweep() {
	defer close(rl.done)

	ticker := time.NewTicker(rl.cfg.TTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

// evict drops clients idle for longer than the TTL
func (rl *RateLimiter) evict() {
	cutoff := rl.now().Add(-rl.cfg.TTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}
