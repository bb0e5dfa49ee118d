// Package middleware holds the gin middleware guarding the scrape API. Auth
// establishes the caller identity the rate limiter buckets by, so the two
// always run in that order.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ladder/models"
)

// identityKey is the context key carrying the authenticated caller's
// identity for downstream middleware.
const identityKey = "identity"

// keyRing is the set of accepted API keys.
type keyRing map[string]struct{}

func newKeyRing(keys []string) keyRing {
	ring := make(keyRing, len(keys))
	for _, k := range keys {
		if k != "" {
			ring[k] = struct{}{}
		}
	}
	return ring
}

func (r keyRing) contains(key string) bool {
	_, ok := r[key]
	return ok
}

// Auth returns API-key authentication middleware. Credentials are read from
// X-API-Key or Authorization: Bearer. An empty key list disables the check
// entirely (open access).
func Auth(apiKeys []string) gin.HandlerFunc {
	ring := newKeyRing(apiKeys)
	if len(ring) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := credentialFrom(c)
		switch {
		case key == "":
			reject(c, "missing API key: provide X-API-Key or Authorization: Bearer <key>")
		case !ring.contains(key):
			reject(c, "unrecognized API key")
		default:
			c.Set(identityKey, key)
			c.Next()
		}
	}
}

// credentialFrom tries X-API-Key first, then Authorization: Bearer.
func credentialFrom(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// reject aborts with the same structured error shape the tier ladder uses,
// suggested action included.
func reject(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ScrapeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:            models.ErrCodeUnauthorized,
			Message:         msg,
			SuggestedAction: "pass a key configured in LADDER_API_KEYS",
		},
	})
}
