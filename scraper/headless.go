package scraper

import (
	"context"

	"github.com/use-agent/ladder/engine"
)

// RodTier is a browser-based executor backed by a shared Browser. It covers
// tier 1 ("Puppeteer", plain headless) and tier 2 ("Playwright", headless
// with stealth evasions); the two differ only in the fetch spec.
type RodTier struct {
	browser *Browser
	name    string
	spec    fetchSpec
}

// NewHeadlessTier creates the tier 1 executor: basic headless automation
// without anti-detection.
func NewHeadlessTier(b *Browser) *RodTier {
	return &RodTier{browser: b, name: "Puppeteer"}
}

// NewStealthTier creates the tier 2 executor: headless automation with the
// stealth evasion script and browser-like headers.
func NewStealthTier(b *Browser) *RodTier {
	return &RodTier{browser: b, name: "Playwright", spec: fetchSpec{stealthJS: true}}
}

func (t *RodTier) Name() string { return t.name }

// CheckAvailability probes for a usable browser binary without launching
// anything.
func (t *RodTier) CheckAvailability() engine.Availability {
	ok, reason := t.browser.binaryAvailable()
	return engine.Availability{Available: ok, Reason: reason}
}

func (t *RodTier) Scrape(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	result, err := t.browser.fetch(ctx, req, t.spec)
	if err != nil {
		return nil, err
	}
	result.TierName = t.name
	return result, nil
}
