package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/ladder/engine"
	"github.com/use-agent/ladder/models"
	"github.com/ysmood/gson"
)

// fetchSpec selects the evasions a rod fetch applies. Tier 1 uses none,
// tier 2 adds the stealth script and a plausible referer, tier 3 adds
// fingerprint masking on top.
type fetchSpec struct {
	stealthJS       bool
	maskFingerprint bool
}

// maskFingerprintJS hides the usual automation tells before any page script
// runs: the webdriver property, the empty plugin list, and the missing
// window.chrome object.
const maskFingerprintJS = `() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => false });
	if (!window.chrome) {
		window.chrome = { runtime: {}, loadTimes: function() {}, csi: function() {}, app: {} };
	}
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
	Object.defineProperty(navigator, 'plugins', {
		get: () => [
			{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', length: 1 },
			{ name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', length: 1 },
		],
	});
	delete navigator.__proto__.webdriver;
}`

// fetch runs one rod-based page fetch.
//
// Ordering constraints (matching the CDP protocol, not taste):
//   - stealth/mask scripts must be installed before Navigate, or they only
//     apply to the next navigation
//   - the hijack router must be mounted before Navigate to catch the first
//     request wave
//   - cleanup navigates the ORIGINAL page to about:blank, without the
//     request context, so pool return works even after a deadline
func (b *Browser) fetch(ctx context.Context, req *engine.FetchRequest, spec fetchSpec) (*engine.FetchResult, error) {
	browser, err := b.ensure()
	if err != nil {
		return nil, err
	}

	b.activePages.Add(1)
	defer b.activePages.Add(-1)

	page, err := b.pagePool.Get(func() (*rod.Page, error) {
		return browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, &models.FetchError{Message: "failed to acquire page from pool", Err: err}
	}
	defer func() {
		_ = page.Navigate("about:blank")
		b.pagePool.Put(page)
	}()

	if spec.stealthJS {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			return nil, &models.FetchError{Message: "stealth injection failed", Err: err}
		}
	}
	if spec.maskFingerprint {
		if _, err := page.EvalOnNewDocument(maskFingerprintJS); err != nil {
			return nil, &models.FetchError{Message: "fingerprint mask injection failed", Err: err}
		}
	}

	headers := make(map[string]string, len(req.Headers)+1)
	if spec.stealthJS || spec.maskFingerprint {
		// Arrive "from a Google search" unless the caller set a referer.
		if _, ok := req.Headers["Referer"]; !ok {
			if u, err := url.Parse(req.URL); err == nil {
				headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
			}
		}
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	if len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}

	router := setupHijack(page)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	if err := p.Navigate(req.URL); err != nil {
		return nil, wrapNavError(err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil && isContextErr(err) {
		return nil, wrapNavError(err)
	}

	statusCode := navigationStatus(p)

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, wrapNavError(err)
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	// A rendered page can still be a block: surface error statuses and
	// challenge interstitials as failures so the engine can escalate.
	if statusCode >= 400 {
		return nil, &models.FetchError{
			StatusCode: statusCode,
			Message:    "target returned an error status",
		}
	}
	if looksLikeChallenge(title, rawHTML) {
		return nil, &models.FetchError{
			StatusCode: statusCode,
			Message:    "captcha challenge page detected",
		}
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      title,
		StatusCode: statusCode,
		FinalURL:   finalURL,
	}, nil
}

// navigationStatus reads the HTTP status of the navigation from the
// performance API, which needs no CDP event listeners (best-effort, 0 when
// unavailable).
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// challengeMarkers are title/body fragments of well-known bot-challenge
// interstitials.
var challengeMarkers = []string{
	"just a moment",
	"checking your browser",
	"verify you are human",
	"are you a robot",
	"unusual traffic",
	"captcha",
}

// looksLikeChallenge reports whether a rendered page is a bot-protection
// challenge rather than real content.
func looksLikeChallenge(title, html string) bool {
	t := strings.ToLower(title)
	for _, m := range challengeMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	// Challenge pages are small; don't scan megabytes of real content.
	if len(html) < 20_000 {
		lower := strings.ToLower(html)
		for _, m := range challengeMarkers {
			if strings.Contains(lower, m) {
				return true
			}
		}
	}
	return false
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (for optional metadata).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// wrapNavError keeps context errors recognizable (the engine classifies
// deadline expiry as a timeout signal) while still attaching a message.
func wrapNavError(err error) error {
	if isContextErr(err) {
		return &models.FetchError{Message: "navigation deadline exceeded", Err: err}
	}
	return &models.FetchError{Message: "navigation failed", Err: err}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
