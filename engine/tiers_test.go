package engine

import (
	"errors"
	"testing"

	"github.com/use-agent/ladder/models"
)

func TestTiers_Catalogue(t *testing.T) {
	wantNames := []string{"Direct HTTP", "Puppeteer", "Playwright", "Selenium", "Interactive"}

	for i, want := range wantNames {
		if Tiers[i].Index != i {
			t.Errorf("Tiers[%d].Index = %d", i, Tiers[i].Index)
		}
		if got := TierName(i); got != want {
			t.Errorf("TierName(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestTierName_OutOfRangePanics(t *testing.T) {
	for _, idx := range []int{-1, MaxTierIndex + 1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("TierName(%d) did not panic", idx)
				}
			}()
			TierName(idx)
		}()
	}
}

func TestValidateTierAvailability_Local(t *testing.T) {
	p := ProfileFrom(DeploymentContext{})

	for i := 0; i <= MaxTierIndex; i++ {
		if err := ValidateTierAvailability(i, p); err != nil {
			t.Errorf("tier %d should be available locally, got %v", i, err)
		}
	}
}

func TestValidateTierAvailability_Serverless(t *testing.T) {
	p := ProfileFrom(DeploymentContext{Serverless: true})

	for i := 0; i <= 1; i++ {
		if err := ValidateTierAvailability(i, p); err != nil {
			t.Errorf("tier %d should be available under serverless, got %v", i, err)
		}
	}

	for i := 2; i <= MaxTierIndex; i++ {
		err := ValidateTierAvailability(i, p)
		if err == nil {
			t.Fatalf("tier %d should be rejected under serverless", i)
		}

		var escErr *models.EscalationError
		if !errors.As(err, &escErr) {
			t.Fatalf("expected *models.EscalationError, got %T", err)
		}
		if escErr.Code != models.ErrCodeTierNotAvailable {
			t.Errorf("code = %q, want %q", escErr.Code, models.ErrCodeTierNotAvailable)
		}
		if escErr.Tier != i {
			t.Errorf("Tier = %d, want %d", escErr.Tier, i)
		}
		if escErr.MaxTier != 1 {
			t.Errorf("MaxTier = %d, want 1", escErr.MaxTier)
		}
		if !escErr.RequiresLocalEnvironment {
			t.Error("RequiresLocalEnvironment should be true for a serverless profile")
		}
		if escErr.SuggestedAction == "" {
			t.Error("SuggestedAction should not be empty")
		}
	}
}

func TestValidateTierAvailability_MissingCapability(t *testing.T) {
	// Ceiling allows tier 4, but interactive capability is absent.
	p := Profile{
		MaxTier:      MaxTierIndex,
		Capabilities: CapBrowserAutomation | CapStealthAutomation | CapUndetectedAutomation,
	}

	if err := ValidateTierAvailability(3, p); err != nil {
		t.Errorf("tier 3 should be available, got %v", err)
	}

	err := ValidateTierAvailability(4, p)
	var escErr *models.EscalationError
	if !errors.As(err, &escErr) || escErr.Code != models.ErrCodeTierNotAvailable {
		t.Fatalf("tier 4 without CapInteractive should be TIER_NOT_AVAILABLE, got %v", err)
	}
}
