package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ladder/config"
	"github.com/use-agent/ladder/models"
	"golang.org/x/time/rate"
)

// A fetch that escalates through the ladder can hold a browser page for the
// whole attempt chain, so admission control happens per caller before any
// tier runs.

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool maps caller identities (API key, or client IP when auth is
// disabled) to token buckets, evicting identities idle for over an hour.
type limiterPool struct {
	mu      sync.Mutex
	cfg     config.RateLimitConfig
	entries map[string]*limiterEntry
}

func newLimiterPool(cfg config.RateLimitConfig) *limiterPool {
	p := &limiterPool{
		cfg:     cfg,
		entries: make(map[string]*limiterEntry),
	}
	go p.evictLoop()
	return p
}

// allow consumes one token from the identity's bucket, creating the bucket
// on first sight.
func (p *limiterPool) allow(identity string) bool {
	p.mu.Lock()
	e, ok := p.entries[identity]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(p.cfg.RequestsPerSecond), p.cfg.Burst),
		}
		p.entries[identity] = e
	}
	e.lastSeen = time.Now()
	p.mu.Unlock()

	return e.limiter.Allow()
}

// evictLoop drops identities not seen for an hour, every five minutes.
func (p *limiterPool) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		p.mu.Lock()
		for id, e := range p.entries {
			if e.lastSeen.Before(cutoff) {
				delete(p.entries, id)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimit returns per-identity token-bucket admission middleware powered
// by golang.org/x/time/rate.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	pool := newLimiterPool(cfg)

	return func(c *gin.Context) {
		identity := c.ClientIP()
		if key, ok := c.Get(identityKey); ok {
			identity = key.(string)
		}

		if !pool.allow(identity) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:            models.ErrCodeRateLimited,
					Message:         "rate limit exceeded for this caller",
					SuggestedAction: "space out requests, or set max_age so repeat fetches hit the cache instead of the tier ladder",
				},
			})
			return
		}

		c.Next()
	}
}
