package engine

// Capability is a bit set of automation capabilities an environment offers.
type Capability uint8

const (
	// CapBrowserAutomation is basic headless automation without
	// anti-detection (tier 1).
	CapBrowserAutomation Capability = 1 << iota

	// CapStealthAutomation is headless automation with stealth evasions
	// (tier 2).
	CapStealthAutomation

	// CapUndetectedAutomation is undetected-chrome style automation
	// (tier 3).
	CapUndetectedAutomation

	// CapInteractive is a manual, user-attended browser session (tier 4).
	CapInteractive
)

const allCapabilities = CapBrowserAutomation | CapStealthAutomation | CapUndetectedAutomation | CapInteractive

// DeploymentContext carries the two environment markers the profiler reads.
// It is loaded once by the config layer; nothing inside the engine reads
// ambient process state, so tests can inject any profile they need.
type DeploymentContext struct {
	// Serverless marks a constrained serverless function (e.g. Vercel,
	// Lambda).
	Serverless bool

	// Development marks an explicitly development-mode host.
	Development bool
}

// Profile is the capability ceiling imposed by the deployment context.
// It is an immutable value, cheap to recompute, and safe to share across
// concurrent requests.
type Profile struct {
	IsServerless       bool
	IsLocalDevelopment bool
	MaxTier            int
	Capabilities       Capability
}

// Has reports whether the profile offers every capability in c.
func (p Profile) Has(c Capability) bool {
	return p.Capabilities&c == c
}

// ProfileFrom derives the capability profile from the deployment context.
//
//	serverless:             maxTier 1, basic headless automation only
//	development or default: maxTier 4, everything available
//
// Tier 1 stays available under the serverless profile: a headless browser
// without anti-detection still runs inside a function sandbox. Tiers 2-4
// need a full local host.
func ProfileFrom(dc DeploymentContext) Profile {
	if dc.Serverless {
		return Profile{
			IsServerless: true,
			MaxTier:      1,
			Capabilities: CapBrowserAutomation,
		}
	}
	return Profile{
		IsLocalDevelopment: dc.Development,
		MaxTier:            MaxTierIndex,
		Capabilities:       allCapabilities,
	}
}
