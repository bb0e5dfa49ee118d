package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ladder/config"
	"github.com/use-agent/ladder/models"
)

func newAuthRouter(apiKeys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(apiKeys))
	r.GET("/ping", func(c *gin.Context) {
		identity, _ := c.Get(identityKey)
		c.JSON(http.StatusOK, gin.H{"identity": identity})
	})
	return r
}

func doRequest(r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_OpenAccessWithoutKeys(t *testing.T) {
	r := newAuthRouter(nil)
	if w := doRequest(r, "", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no keys are configured", w.Code)
	}
}

func TestAuth_MissingKey(t *testing.T) {
	r := newAuthRouter([]string{"alpha"})
	w := doRequest(r, "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	var resp models.ScrapeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeUnauthorized {
		t.Errorf("unexpected error body: %+v", resp.Error)
	}
	if resp.Error.SuggestedAction == "" {
		t.Error("auth rejection should carry a suggested action")
	}
}

func TestAuth_InvalidKey(t *testing.T) {
	r := newAuthRouter([]string{"alpha"})
	if w := doRequest(r, "X-API-Key", "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_AcceptsBothHeaderStyles(t *testing.T) {
	r := newAuthRouter([]string{"alpha"})

	if w := doRequest(r, "X-API-Key", "alpha"); w.Code != http.StatusOK {
		t.Errorf("X-API-Key status = %d, want 200", w.Code)
	}
	if w := doRequest(r, "Authorization", "Bearer alpha"); w.Code != http.StatusOK {
		t.Errorf("Bearer status = %d, want 200", w.Code)
	}
}

func TestAuth_SetsIdentity(t *testing.T) {
	r := newAuthRouter([]string{"alpha"})
	w := doRequest(r, "X-API-Key", "alpha")

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["identity"] != "alpha" {
		t.Errorf("identity = %q, want the presented key", body["identity"])
	}
}

func TestRateLimit_BlocksBeyondBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth([]string{"alpha"}))
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := doRequest(r, "X-API-Key", "alpha"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}

	w := doRequest(r, "X-API-Key", "alpha")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 once the burst is spent", w.Code)
	}

	var resp models.ScrapeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("unexpected error body: %+v", resp.Error)
	}
}

func TestRateLimit_IndependentIdentities(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth([]string{"alpha", "beta"}))
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, "X-API-Key", "alpha"); w.Code != http.StatusOK {
		t.Fatalf("alpha's first request should pass, got %d", w.Code)
	}
	if w := doRequest(r, "X-API-Key", "alpha"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("alpha's second request should be limited, got %d", w.Code)
	}
	if w := doRequest(r, "X-API-Key", "beta"); w.Code != http.StatusOK {
		t.Errorf("beta has its own bucket and should pass, got %d", w.Code)
	}
}
