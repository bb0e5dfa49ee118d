package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/use-agent/ladder/models"
)

func TestAllTiersExhausted_Serverless(t *testing.T) {
	p := ProfileFrom(DeploymentContext{Serverless: true})
	lastErr := errors.New("403 forbidden")
	attempts := []models.AttemptRecord{
		{Tier: 0, TierName: "Direct HTTP", Signal: "rate_limit_or_forbidden"},
		{Tier: 1, TierName: "Puppeteer", Signal: "rate_limit_or_forbidden"},
	}

	e := AllTiersExhausted(1, p, lastErr, attempts)

	if e.Code != models.ErrCodeAllTiersExhausted {
		t.Errorf("Code = %q", e.Code)
	}
	if e.MaxTier != 1 {
		t.Errorf("MaxTier = %d, want 1", e.MaxTier)
	}
	if !e.RequiresLocalEnvironment {
		t.Error("RequiresLocalEnvironment should be true under serverless")
	}
	if !strings.Contains(e.Message, "run locally") {
		t.Errorf("serverless message should point at running locally, got %q", e.Message)
	}
	if len(e.Attempts) != 2 {
		t.Errorf("Attempts length = %d, want 2", len(e.Attempts))
	}
	if !errors.Is(e, lastErr) {
		t.Error("the last underlying failure should stay unwrappable")
	}
}

func TestAllTiersExhausted_Local(t *testing.T) {
	p := ProfileFrom(DeploymentContext{})
	e := AllTiersExhausted(MaxTierIndex, p, errors.New("captcha"), nil)

	if e.RequiresLocalEnvironment {
		t.Error("RequiresLocalEnvironment should be false for a local profile")
	}
	if !strings.Contains(e.Message, "bot protection") {
		t.Errorf("local message should name bot protection, got %q", e.Message)
	}
}

func TestTierLimitExceeded(t *testing.T) {
	serverless := ProfileFrom(DeploymentContext{Serverless: true})
	e := TierLimitExceeded(1, serverless, errors.New("429"), nil)

	if e.Code != models.ErrCodeTierLimitExceeded {
		t.Errorf("Code = %q", e.Code)
	}
	if e.Tier != 1 || e.MaxTier != 1 {
		t.Errorf("Tier/MaxTier = %d/%d, want 1/1", e.Tier, e.MaxTier)
	}
	if !e.RequiresLocalEnvironment {
		t.Error("RequiresLocalEnvironment should be true under serverless")
	}

	local := ProfileFrom(DeploymentContext{})
	e = TierLimitExceeded(MaxTierIndex, local, errors.New("429"), nil)
	if e.RequiresLocalEnvironment {
		t.Error("RequiresLocalEnvironment should be false for a local profile")
	}
	if e.SuggestedAction == "" {
		t.Error("SuggestedAction should not be empty")
	}
}

func TestLoginRequired(t *testing.T) {
	serverless := ProfileFrom(DeploymentContext{Serverless: true})
	e := LoginRequired("https://example.com/dashboard", serverless, nil)

	if e.Code != models.ErrCodeLoginRequired {
		t.Errorf("Code = %q", e.Code)
	}
	if !e.RequiresLocalEnvironment {
		t.Error("RequiresLocalEnvironment should be true under serverless")
	}
	if !strings.Contains(e.Message, "https://example.com/dashboard") {
		t.Errorf("message should carry the target URL, got %q", e.Message)
	}
	if !strings.Contains(e.SuggestedAction, "run locally") {
		t.Errorf("serverless suggestion should be to run locally, got %q", e.SuggestedAction)
	}

	local := ProfileFrom(DeploymentContext{})
	e = LoginRequired("https://example.com/dashboard", local, nil)
	if e.RequiresLocalEnvironment {
		t.Error("RequiresLocalEnvironment should be false for a local profile")
	}
	if !strings.Contains(e.SuggestedAction, "interactive") {
		t.Errorf("local suggestion should be an interactive session, got %q", e.SuggestedAction)
	}
}

func TestEscalationError_ToDetail(t *testing.T) {
	e := &models.EscalationError{
		Code:                     models.ErrCodeAllTiersExhausted,
		Message:                  "m",
		Tier:                     1,
		MaxTier:                  1,
		RequiresLocalEnvironment: true,
		SuggestedAction:          "a",
		Attempts:                 []models.AttemptRecord{{Tier: 0, TierName: "Direct HTTP"}},
	}

	d := e.ToDetail()
	if d.Code != e.Code || d.Message != e.Message || d.Tier != e.Tier ||
		d.MaxTier != e.MaxTier || d.RequiresLocalEnvironment != e.RequiresLocalEnvironment ||
		d.SuggestedAction != e.SuggestedAction || len(d.Attempts) != 1 {
		t.Errorf("ToDetail dropped fields: %+v", d)
	}
}
