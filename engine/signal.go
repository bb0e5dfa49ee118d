package engine

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/ladder/models"
)

// SignalKind classifies why a fetch attempt failed or yielded unusable
// content.
type SignalKind string

const (
	SignalRateLimitOrForbidden SignalKind = "rate_limit_or_forbidden"
	SignalCaptcha              SignalKind = "captcha"
	SignalLoginWall            SignalKind = "login_wall"
	SignalTimeout              SignalKind = "timeout"
	SignalUnknown              SignalKind = "unknown"
)

// BlockSignal is a classified fetch failure with free-form evidence.
type BlockSignal struct {
	Kind     SignalKind
	Evidence string
}

// Classify inspects a failed attempt's error and maps it to a block signal.
//
// Typed causes are checked first: a *models.FetchError carrying an HTTP 403
// or 429, and context deadline/cancellation. Message substring matching is
// the fallback for executors that cannot return a typed cause.
func Classify(err error) BlockSignal {
	if err == nil {
		return BlockSignal{Kind: SignalUnknown}
	}

	var fe *models.FetchError
	if errors.As(err, &fe) && (fe.StatusCode == 403 || fe.StatusCode == 429) {
		return BlockSignal{Kind: SignalRateLimitOrForbidden, Evidence: fe.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return BlockSignal{Kind: SignalTimeout, Evidence: err.Error()}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "captcha"):
		return BlockSignal{Kind: SignalCaptcha, Evidence: err.Error()}
	case strings.Contains(msg, "403") || strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return BlockSignal{Kind: SignalRateLimitOrForbidden, Evidence: err.Error()}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "deadline exceeded"):
		return BlockSignal{Kind: SignalTimeout, Evidence: err.Error()}
	}

	return BlockSignal{Kind: SignalUnknown, Evidence: err.Error()}
}

// loginIndicatorThreshold is how many of the three independent login-wall
// indicator categories (URL, markup, text) must match before a successful
// fetch is treated as an authentication wall. Requiring two avoids false
// positives on pages that merely mention "sign in" or contain an unrelated
// password field.
const loginIndicatorThreshold = 2

var passwordInputSel = cascadia.MustCompile(`input[type="password"]`)

// authPathFragments are URL path fragments that suggest an authentication
// page.
var authPathFragments = []string{
	"/login", "/log-in", "/signin", "/sign-in", "/sign_in",
	"/auth", "/sso", "/session/new", "/account/login", "/accounts/login",
}

// authQueryKeys are query parameters login pages commonly use to remember
// where to send the user afterwards.
var authQueryKeys = []string{"redirect_to", "returnurl", "return_url", "return_to", "next"}

// signInPhrases are human-readable phrasings that indicate the visible page
// text is asking the user to authenticate.
var signInPhrases = []string{
	"sign in to continue",
	"log in to continue",
	"please sign in",
	"please log in",
	"sign in to your account",
	"log in to your account",
	"you must be logged in",
	"you need to sign in",
	"create an account to continue",
	"member login",
}

// RequiresLogin reports whether a successful fetch actually landed on an
// authentication wall. It evaluates three independent indicator categories
// (final URL, markup, visible text) and returns true only when at least
// loginIndicatorThreshold of them match.
func RequiresLogin(res *FetchResult) bool {
	if res == nil {
		return false
	}

	matched := 0
	if urlSuggestsAuth(res.FinalURL) {
		matched++
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err == nil {
		if len(doc.Nodes) > 0 && passwordInputSel.MatchFirst(doc.Nodes[0]) != nil {
			matched++
		}
		if textSuggestsSignIn(doc.Text()) {
			matched++
		}
	}

	return matched >= loginIndicatorThreshold
}

// urlSuggestsAuth checks the URL path and query for auth-page patterns.
func urlSuggestsAuth(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, frag := range authPathFragments {
		if strings.Contains(path, frag) {
			return true
		}
	}

	q := u.Query()
	for _, key := range authQueryKeys {
		if q.Has(key) {
			return true
		}
	}
	return false
}

// textSuggestsSignIn checks the page's visible text for sign-in phrasing.
func textSuggestsSignIn(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range signInPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
