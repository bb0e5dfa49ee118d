package engine

import (
	"fmt"

	"github.com/use-agent/ladder/models"
)

// The constructors below build the terminal structured errors. The message
// always reflects the profile at construction time: a serverless profile
// yields "run locally" remediation, a local profile states that the target's
// protection exceeds everything available.

// TierLimitExceeded is returned when escalation is needed but the fetch was
// pinned at the environment's ceiling from the start, so the ladder never
// advanced.
func TierLimitExceeded(currentTier int, p Profile, lastErr error, attempts []models.AttemptRecord) *models.EscalationError {
	e := &models.EscalationError{
		Code:                     models.ErrCodeTierLimitExceeded,
		Tier:                     currentTier,
		MaxTier:                  p.MaxTier,
		RequiresLocalEnvironment: p.IsServerless,
		Attempts:                 attempts,
		Err:                      lastErr,
	}
	if p.IsServerless {
		e.Message = fmt.Sprintf("tier %d (%s) is the maximum available in this serverless environment; run locally to access more tiers",
			currentTier, TierName(currentTier))
		e.SuggestedAction = "run locally to unlock stealth and interactive tiers"
	} else {
		e.Message = fmt.Sprintf("the site's protection exceeds all available tiers (maximum tier: %d, %s)",
			p.MaxTier, TierName(p.MaxTier))
		e.SuggestedAction = "no higher tier exists; the target may require manual access"
	}
	return e
}

// AllTiersExhausted is returned when the attempt ladder escalated up to the
// environment's ceiling and every tier failed.
func AllTiersExhausted(maxTierAttempted int, p Profile, lastErr error, attempts []models.AttemptRecord) *models.EscalationError {
	e := &models.EscalationError{
		Code:                     models.ErrCodeAllTiersExhausted,
		Tier:                     maxTierAttempted,
		MaxTier:                  maxTierAttempted,
		RequiresLocalEnvironment: p.IsServerless,
		Attempts:                 attempts,
		Err:                      lastErr,
	}
	if p.IsServerless {
		e.Message = fmt.Sprintf("all tiers up to %d (%s) failed in this deployed serverless environment; run locally to unlock tiers up to %d (%s)",
			maxTierAttempted, TierName(maxTierAttempted), MaxTierIndex, TierName(MaxTierIndex))
		e.SuggestedAction = "run locally to access stealth and interactive tiers"
	} else {
		e.Message = fmt.Sprintf("advanced bot protection blocked every available tier (0-%d)", maxTierAttempted)
		e.SuggestedAction = "no further automated remediation is available"
	}
	return e
}

// LoginRequired is returned when a fetch landed on an authentication wall
// and no interactive session can handle it.
func LoginRequired(targetURL string, p Profile, attempts []models.AttemptRecord) *models.EscalationError {
	e := &models.EscalationError{
		Code:                     models.ErrCodeLoginRequired,
		Tier:                     p.MaxTier,
		MaxTier:                  p.MaxTier,
		RequiresLocalEnvironment: p.IsServerless,
		Attempts:                 attempts,
	}
	if p.IsServerless {
		e.Message = fmt.Sprintf("%s requires authentication; interactive login is unavailable in a deployed serverless environment", targetURL)
		e.SuggestedAction = "run locally to complete the login interactively"
	} else {
		e.Message = fmt.Sprintf("%s requires authentication and no interactive browser session is connected", targetURL)
		e.SuggestedAction = "connect an interactive browser session (tier 4) and log in manually"
	}
	return e
}
