package engine

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/ladder/models"
)

// TierTimeouts holds the per-attempt deadline for each tier. The interactive
// tier legitimately runs far longer than the automated ones, so worst-case
// total latency is bounded by the sum of these values up to the ceiling.
type TierTimeouts [MaxTierIndex + 1]time.Duration

// defaultTierTimeouts backfills unset (zero) entries so no attempt ever runs
// under an already-expired context.
var defaultTierTimeouts = TierTimeouts{
	10 * time.Second,
	30 * time.Second,
	45 * time.Second,
	60 * time.Second,
	15 * time.Minute,
}

// Orchestrator drives the tier attempt ladder for a single URL: validate
// availability, invoke the executor, triage the failure, escalate or stop.
// Tiers are attempted strictly one at a time, never in parallel — each step
// up the ladder is more expensive than the last, and the point is not to pay
// for it until a cheaper tier has demonstrably failed.
//
// Concurrent Fetch calls for different URLs are independent; the only shared
// state is the immutable profile and the domain memory.
type Orchestrator struct {
	profile   Profile
	executors map[int]TierExecutor
	timeouts  TierTimeouts
	memory    *DomainMemory // optional
}

// FetchOptions carries per-call options for Orchestrator.Fetch.
type FetchOptions struct {
	// StartTier is where the ladder begins. Default 0.
	StartTier int

	// Headers are extra HTTP headers forwarded to the tier executors.
	Headers map[string]string
}

// NewOrchestrator creates an Orchestrator. executors maps tier index to the
// executor implementing it; memory may be nil to disable per-domain tier
// memory.
func NewOrchestrator(profile Profile, executors map[int]TierExecutor, timeouts TierTimeouts, memory *DomainMemory) *Orchestrator {
	for i, d := range timeouts {
		if d <= 0 {
			timeouts[i] = defaultTierTimeouts[i]
		}
	}
	return &Orchestrator{
		profile:   profile,
		executors: executors,
		timeouts:  timeouts,
		memory:    memory,
	}
}

// Profile returns the environment profile the orchestrator was built with.
func (o *Orchestrator) Profile() Profile {
	return o.profile
}

// Fetch runs the attempt ladder for the URL and returns a usable result or
// a terminal *models.EscalationError. Unclassifiable failures are returned
// unmodified — escalating cannot fix an error nobody recognized, and the
// structured codes are reserved for capacity exhaustion, not confusion.
func (o *Orchestrator) Fetch(ctx context.Context, target string, opts FetchOptions) (*FetchResult, []models.AttemptRecord, error) {
	tier := opts.StartTier
	if err := ValidateTierAvailability(tier, o.profile); err != nil {
		return nil, nil, err
	}

	domain := extractDomain(target)

	// Domain memory: skip ahead to the tier that last worked here, as long
	// as the environment still permits it.
	if o.memory != nil {
		if remembered, ok := o.memory.Get(domain); ok && remembered > tier {
			if ValidateTierAvailability(remembered, o.profile) == nil {
				slog.Debug("domain memory hit", "domain", domain, "tier", remembered)
				tier = remembered
			}
		}
	}

	var (
		attempts  []models.AttemptRecord
		escalated bool
		lastErr   error
	)

	for {
		if err := ValidateTierAvailability(tier, o.profile); err != nil {
			return nil, attempts, err
		}

		exec := o.executors[tier]
		if exec == nil {
			return nil, attempts, tierUnavailable(tier, o.profile, "no executor registered for this tier")
		}
		if avail := exec.CheckAvailability(); !avail.Available {
			return nil, attempts, tierUnavailable(tier, o.profile, avail.Reason)
		}

		result, err := o.attempt(ctx, exec, tier, target, opts.Headers)
		if err == nil {
			if !RequiresLogin(result) {
				if o.memory != nil {
					o.memory.Set(domain, tier)
				}
				attempts = append(attempts, models.AttemptRecord{Tier: tier, TierName: TierName(tier)})
				return result, attempts, nil
			}

			// Landed on an authentication wall.
			attempts = append(attempts, models.AttemptRecord{
				Tier:     tier,
				TierName: TierName(tier),
				Signal:   string(SignalLoginWall),
			})
			if o.interactiveReachable(tier) {
				// Hand off to the interactive tier so the user can log in.
				slog.Info("login wall detected, handing off to interactive tier",
					"url", target, "tier", tier)
				tier = MaxTierIndex
				escalated = true
				continue
			}
			return nil, attempts, LoginRequired(target, o.profile, attempts)
		}

		lastErr = err
		signal := Classify(err)
		attempts = append(attempts, models.AttemptRecord{
			Tier:     tier,
			TierName: TierName(tier),
			Signal:   string(signal.Kind),
			Error:    err.Error(),
		})
		slog.Debug("tier attempt failed",
			"url", target, "tier", tier, "signal", signal.Kind, "error", err)

		// The remembered tier stopped working for this domain.
		if o.memory != nil {
			if remembered, ok := o.memory.Get(domain); ok && remembered == tier {
				o.memory.Delete(domain)
			}
		}

		decision := Decide(signal, tier, o.profile)
		if decision.Escalate {
			slog.Info("escalating",
				"url", target,
				"from", TierName(tier), "to", TierName(decision.NextTier),
				"signal", signal.Kind)
			tier = decision.NextTier
			escalated = true
			continue
		}

		if signal.Kind == SignalUnknown {
			// Surface unrecognized failures unmodified.
			return nil, attempts, err
		}

		// Escalatable signal, but the environment ceiling blocks the next
		// tier. If the ladder actually advanced the tiers are exhausted;
		// if the fetch was pinned at the ceiling from the start, the
		// ceiling itself is the problem.
		if escalated {
			return nil, attempts, AllTiersExhausted(tier, o.profile, lastErr, attempts)
		}
		return nil, attempts, TierLimitExceeded(tier, o.profile, lastErr, attempts)
	}
}

// interactiveReachable reports whether a login wall hit at currentTier can
// be handed to the interactive tier. The executor's probe runs here, before
// the handoff, so an unconnected interactive browser yields LOGIN_REQUIRED
// rather than a mid-ladder availability error.
func (o *Orchestrator) interactiveReachable(currentTier int) bool {
	if o.profile.IsServerless || currentTier >= MaxTierIndex || MaxTierIndex > o.profile.MaxTier {
		return false
	}
	exec := o.executors[MaxTierIndex]
	return exec != nil && exec.CheckAvailability().Available
}

// attempt invokes one tier executor under its per-tier deadline.
func (o *Orchestrator) attempt(ctx context.Context, exec TierExecutor, tier int, target string, headers map[string]string) (*FetchResult, error) {
	timeout := o.timeouts[tier]
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return exec.Scrape(attemptCtx, &FetchRequest{
		URL:     target,
		Headers: headers,
		Timeout: timeout,
	})
}

// tierUnavailable builds a TIER_NOT_AVAILABLE error from an executor's
// availability probe, before any resource was acquired.
func tierUnavailable(tier int, p Profile, reason string) *models.EscalationError {
	if reason == "" {
		reason = "tier executor reported unavailable"
	}
	return &models.EscalationError{
		Code:                     models.ErrCodeTierNotAvailable,
		Message:                  reason,
		Tier:                     tier,
		MaxTier:                  p.MaxTier,
		RequiresLocalEnvironment: p.IsServerless,
		SuggestedAction:          "choose a lower tier or fix the executor's prerequisites",
	}
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
