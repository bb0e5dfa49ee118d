package engine

import (
	"fmt"

	"github.com/use-agent/ladder/models"
)

// Tier is one static entry of the tier catalogue.
type Tier struct {
	Index    int
	Name     string
	Requires Capability // 0 means no capability required
}

// MaxTierIndex is the highest tier the catalogue defines.
const MaxTierIndex = 4

// Tiers is the fixed, ordered tier catalogue. Index 0 is the cheapest
// strategy; each subsequent tier is more capable and more expensive.
var Tiers = [MaxTierIndex + 1]Tier{
	{Index: 0, Name: "Direct HTTP"},
	{Index: 1, Name: "Puppeteer", Requires: CapBrowserAutomation},
	{Index: 2, Name: "Playwright", Requires: CapStealthAutomation},
	{Index: 3, Name: "Selenium", Requires: CapUndetectedAutomation},
	{Index: 4, Name: "Interactive", Requires: CapInteractive},
}

// TierName returns the name of the tier at index. An out-of-range index is
// a programmer error and panics.
func TierName(index int) string {
	if index < 0 || index > MaxTierIndex {
		panic(fmt.Sprintf("engine: tier index %d out of range [0,%d]", index, MaxTierIndex))
	}
	return Tiers[index].Name
}

// ValidateTierAvailability checks that the environment can run the given
// tier. It must be called before invoking a tier executor so no resource
// (browser process, connection) is ever acquired for an unavailable tier.
//
// It fails with TIER_NOT_AVAILABLE when the index exceeds the profile's
// ceiling or the tier's required capability is absent.
func ValidateTierAvailability(index int, p Profile) error {
	if index < 0 || index > MaxTierIndex {
		panic(fmt.Sprintf("engine: tier index %d out of range [0,%d]", index, MaxTierIndex))
	}

	t := Tiers[index]
	if index <= p.MaxTier && p.Has(t.Requires) {
		return nil
	}

	suggested := fmt.Sprintf("request a tier between 0 and %d", p.MaxTier)
	if p.IsServerless {
		suggested = "run locally to access tiers above the serverless ceiling"
	}

	return &models.EscalationError{
		Code: models.ErrCodeTierNotAvailable,
		Message: fmt.Sprintf("tier %d (%s) is not available in this environment (maximum tier: %d)",
			index, t.Name, p.MaxTier),
		Tier:                     index,
		MaxTier:                  p.MaxTier,
		RequiresLocalEnvironment: p.IsServerless,
		SuggestedAction:          suggested,
	}
}
