package scraper

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/ladder/engine"
	"github.com/use-agent/ladder/models"
)

// InteractiveTier is the tier 4 executor: it attaches to a user-attended
// Chrome over its devtools endpoint, so a human can click through consent
// dialogs or complete a login while the fetch waits. Connecting never kills
// the user's browser; only the page this executor created is closed.
type InteractiveTier struct {
	cdpURL string
}

// NewInteractiveTier creates the tier 4 executor. cdpURL is the devtools
// endpoint of a running, headful Chrome (empty means not configured).
func NewInteractiveTier(cdpURL string) *InteractiveTier {
	return &InteractiveTier{cdpURL: cdpURL}
}

func (t *InteractiveTier) Name() string { return "Interactive" }

func (t *InteractiveTier) CheckAvailability() engine.Availability {
	if t.cdpURL == "" {
		return engine.Availability{
			Reason: "no interactive browser connected; set LADDER_CDP_URL to a running Chrome devtools endpoint",
		}
	}
	return engine.Availability{Available: true}
}

func (t *InteractiveTier) Scrape(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	browser := rod.New().ControlURL(t.cdpURL)
	if err := browser.Connect(); err != nil {
		return nil, &models.FetchError{Message: "failed to connect to interactive browser", Err: err}
	}
	// Close disconnects the websocket without killing the user's browser.
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: req.URL})
	if err != nil {
		return nil, &models.FetchError{Message: "failed to open page in interactive browser", Err: err}
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx)

	if err := p.WaitLoad(); err != nil {
		return nil, wrapNavError(err)
	}

	// Give the user time to act: re-extract whenever the DOM settles and
	// return as soon as the page stops looking like a wall, or when the
	// deadline runs out (the last snapshot is still returned so the engine
	// can judge it).
	var last *engine.FetchResult
	for {
		_ = p.WaitDOMStable(500*time.Millisecond, 0.1)

		snapshot, err := t.snapshot(p, req.URL)
		if err == nil {
			last = snapshot
			if !engine.RequiresLogin(snapshot) {
				return snapshot, nil
			}
		}

		select {
		case <-ctx.Done():
			if last != nil {
				return last, nil
			}
			return nil, wrapNavError(ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
}

// snapshot extracts the page's current state.
func (t *InteractiveTier) snapshot(p *rod.Page, requestURL string) (*engine.FetchResult, error) {
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, wrapNavError(err)
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = requestURL
	}
	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: navigationStatus(p),
		FinalURL:   finalURL,
		TierName:   t.Name(),
	}, nil
}
