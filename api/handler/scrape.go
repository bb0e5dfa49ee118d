package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ladder/cache"
	"github.com/use-agent/ladder/cleaner"
	"github.com/use-agent/ladder/config"
	"github.com/use-agent/ladder/engine"
	"github.com/use-agent/ladder/models"
	"github.com/use-agent/ladder/webhook"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Orchestrator.Fetch → raw HTML via the tier ladder  (records fetch_ms)
//  3. Cleaner.Clean      → Markdown/HTML/text            (records cleaning_ms)
//  4. Merge metadata (readability title → page title fallback).
//  5. Fill tier, attempts, timing; return 200.
func Scrape(orch *engine.Orchestrator, cl *cleaner.Cleaner, cc *cache.Cache, wh config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// ── 1b. Cache lookup ───────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cacheKey := cache.Key(req.URL, req.OutputFormat, req.ExtractMode)
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				cached.CacheStatus = "hit"
				cached.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		// ── 2. Fetch via the tier ladder ────────────────────────────
		fetchStart := time.Now()
		result, attempts, err := orch.Fetch(c.Request.Context(), req.URL, engine.FetchOptions{
			StartTier: req.StartTier,
			Headers:   req.Headers,
		})
		fetchMs := time.Since(fetchStart).Milliseconds()

		if err != nil {
			notifyTerminal(wh, req.URL, err)
			respondError(c, err, attempts, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
				FetchMs: fetchMs,
			})
			return
		}

		// ── 3. Clean ────────────────────────────────────────────────
		cleanStart := time.Now()
		resp, err := cl.Clean(result.HTML, req.URL, req.OutputFormat, req.ExtractMode)
		cleaningMs := time.Since(cleanStart).Milliseconds()

		if err != nil {
			respondError(c, err, attempts, models.TimingInfo{
				TotalMs:    time.Since(totalStart).Milliseconds(),
				FetchMs:    fetchMs,
				CleaningMs: cleaningMs,
			})
			return
		}

		// ── 4. Title fallback ───────────────────────────────────────
		// Readability usually extracts a better title, but on fallback
		// (raw-HTML passthrough) it will be empty. Use the page title
		// reported by the tier executor as the safety net.
		if resp.Metadata.Title == "" {
			resp.Metadata.Title = result.Title
		}

		// ── 5. Fill fetch result fields + timing and respond ────────
		resp.StatusCode = result.StatusCode
		resp.FinalURL = result.FinalURL
		resp.TierName = result.TierName
		if n := len(attempts); n > 0 {
			resp.Tier = attempts[n-1].Tier
		}
		resp.Attempts = attempts
		resp.Timing = models.TimingInfo{
			TotalMs:    time.Since(totalStart).Milliseconds(),
			FetchMs:    fetchMs,
			CleaningMs: cleaningMs,
		}

		// ── 6. Cache store ──────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cacheKey := cache.Key(req.URL, req.OutputFormat, req.ExtractMode)
			cc.Set(cacheKey, resp)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// notifyTerminal fires the configured webhook for terminal ladder outcomes
// that need operator attention.
func notifyTerminal(wh config.WebhookConfig, url string, err error) {
	if wh.URL == "" {
		return
	}

	var escErr *models.EscalationError
	if !errors.As(err, &escErr) {
		return
	}

	var eventType string
	switch escErr.Code {
	case models.ErrCodeAllTiersExhausted:
		eventType = webhook.EventExhausted
	case models.ErrCodeLoginRequired:
		eventType = webhook.EventLoginRequired
	default:
		return
	}

	webhook.DeliverAsync(wh.URL, wh.Secret, &webhook.Event{
		Type:      eventType,
		URL:       url,
		Timestamp: time.Now().Unix(),
		Error:     escErr.ToDetail(),
	})
}

// respondError maps a terminal error to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, attempts []models.AttemptRecord, timing models.TimingInfo) {
	var detail *models.ErrorDetail
	var status int

	var escErr *models.EscalationError
	switch {
	case errors.As(err, &escErr):
		detail = escErr.ToDetail()
		status = mapErrorToStatus(escErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		detail = &models.ErrorDetail{
			Code:     models.ErrCodeInternal,
			Message:  "fetch timed out: " + err.Error(),
			Attempts: attempts,
		}
		status = http.StatusGatewayTimeout
	default:
		detail = &models.ErrorDetail{
			Code:     models.ErrCodeInternal,
			Message:  err.Error(),
			Attempts: attempts,
		}
		status = http.StatusInternalServerError
	}

	c.JSON(status, models.ScrapeResponse{
		Success: false,
		Error:   detail,
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeTierNotAvailable:
		return http.StatusBadRequest // 400
	case models.ErrCodeLoginRequired:
		return http.StatusConflict // 409
	case models.ErrCodeTierLimitExceeded, models.ErrCodeAllTiersExhausted:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
