package scraper

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/ladder/config"
	"github.com/use-agent/ladder/models"
)

// Browser manages a rod browser process and its page pool. It is safe for
// concurrent use.
//
// The browser is launched lazily, on the first fetch that needs it: spawning
// Chrome is exactly the kind of cost the escalation ladder exists to avoid
// paying until a cheaper tier has failed.
type Browser struct {
	cfg        config.BrowserConfig
	undetected bool

	mu       sync.Mutex
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]

	activePages atomic.Int32
}

// NewBrowser creates a lazily-launched Browser. When undetected is true the
// launcher carries the extra anti-fingerprinting flags used by
// undetected-chrome setups.
func NewBrowser(cfg config.BrowserConfig, undetected bool) *Browser {
	return &Browser{cfg: cfg, undetected: undetected}
}

// ensure launches and connects the browser on first use.
func (b *Browser) ensure() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Headless(b.cfg.Headless).
		NoSandbox(b.cfg.NoSandbox)

	if b.cfg.BrowserBin != "" {
		l = l.Bin(b.cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))

	if b.undetected {
		l.Set(flags.Flag("disable-infobars"))
		l.Set(flags.Flag("disable-notifications"))
		l.Set(flags.Flag("disable-background-networking"))
		l.Set(flags.Flag("disable-sync"))
		l.Set(flags.Flag("mute-audio"))
		l.Set(flags.Flag("window-size"), "1920,1080")
		l.Set(flags.Flag("lang"), "en-US")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &models.FetchError{Message: "failed to launch browser", Err: err}
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, &models.FetchError{Message: "failed to connect to browser", Err: err}
	}
	slog.Info("browser launched",
		"undetected", b.undetected, "maxPages", b.cfg.MaxPages)

	b.browser = browser
	b.pagePool = rod.NewPagePool(b.cfg.MaxPages)
	return b.browser, nil
}

// Stats returns a snapshot of the page pool's current state.
func (b *Browser) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    b.cfg.MaxPages,
		ActivePages: int(b.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process. Call on
// graceful shutdown to prevent zombie Chrome processes. A browser that was
// never launched is a no-op.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return
	}
	b.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	b.browser.MustClose()
	b.browser = nil
	slog.Info("browser shut down", "undetected", b.undetected)
}

// binaryAvailable is the cheap capability probe shared by the rod-based
// tiers: the configured binary exists, or a system browser can be found.
func (b *Browser) binaryAvailable() (bool, string) {
	if b.cfg.BrowserBin != "" {
		if _, err := os.Stat(b.cfg.BrowserBin); err != nil {
			return false, "configured browser binary not found: " + b.cfg.BrowserBin
		}
		return true, ""
	}
	if _, has := launcher.LookPath(); !has {
		return false, "no Chrome/Chromium binary found on this host"
	}
	return true, ""
}
