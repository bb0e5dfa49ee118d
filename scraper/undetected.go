package scraper

import (
	"context"

	"github.com/use-agent/ladder/engine"
)

// UndetectedTier is the tier 3 executor ("Selenium"): a dedicated browser
// instance launched with undetected-chrome style flags, plus stealth and
// fingerprint-masking scripts. It owns its own Browser so its launch flags
// never leak into the cheaper tiers, and the process is only spawned if a
// fetch actually escalates this far.
type UndetectedTier struct {
	browser *Browser
}

// NewUndetectedTier creates the tier 3 executor around an undetected
// Browser (see NewBrowser's undetected flag).
func NewUndetectedTier(b *Browser) *UndetectedTier {
	return &UndetectedTier{browser: b}
}

func (t *UndetectedTier) Name() string { return "Selenium" }

func (t *UndetectedTier) CheckAvailability() engine.Availability {
	ok, reason := t.browser.binaryAvailable()
	return engine.Availability{Available: ok, Reason: reason}
}

func (t *UndetectedTier) Scrape(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	result, err := t.browser.fetch(ctx, req, fetchSpec{stealthJS: true, maskFingerprint: true})
	if err != nil {
		return nil, err
	}
	result.TierName = t.Name()
	return result, nil
}
