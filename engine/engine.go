package engine

import (
	"context"
	"time"
)

// TierExecutor is the contract every acquisition tier implements. The
// escalation engine consumes executors only through this interface and
// performs no network I/O of its own.
type TierExecutor interface {
	// Name returns the tier identifier (e.g. "Direct HTTP", "Playwright").
	Name() string

	// CheckAvailability is a cheap, synchronous capability probe
	// (browser binary present, CDP endpoint configured). It must be
	// consistent with the static environment profile but may be stricter.
	CheckAvailability() Availability

	// Scrape fetches the page. Failures should carry a typed cause
	// (*models.FetchError with an HTTP status, or a context error) so the
	// block-signal detector does not need message heuristics.
	Scrape(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// Availability is the result of a tier executor's capability probe.
type Availability struct {
	Available bool
	Reason    string
}

// FetchRequest contains everything a tier executor needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResult is the output of a successful tier fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	TierName   string
}
