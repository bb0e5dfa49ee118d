package engine

// EscalationDecision is the pure output of policy evaluation. It carries no
// hidden side effects; the orchestrator acts on it explicitly.
type EscalationDecision struct {
	Escalate bool
	NextTier int
}

// Decide determines whether a classified failure at currentTier justifies
// retrying with the next tier.
//
// Rate-limit/forbidden, captcha and timeout signals escalate while the
// profile's ceiling allows it. Unknown failures never escalate: a heavier
// tool cannot fix an error nobody recognized, so it is surfaced instead.
// At or above the ceiling the decision is always no, regardless of signal.
func Decide(signal BlockSignal, currentTier int, p Profile) EscalationDecision {
	if currentTier >= p.MaxTier {
		return EscalationDecision{}
	}

	switch signal.Kind {
	case SignalRateLimitOrForbidden, SignalCaptcha, SignalTimeout:
		return EscalationDecision{Escalate: true, NextTier: currentTier + 1}
	}
	return EscalationDecision{}
}
