package vault

import "confidential-gateway/internal/types"

// Alert is one fired alert: a vaulted item whose alert level or family
// crossed the configured critical threshold.
type Alert struct {
	Token              string
	SessionID          string
	Family             types.DataFamily
	AlertLevel         types.AlertLevel
	RecommendRotation  bool
}

// AlertEngine decides whether a stored item should fire an alert and
// dispatches it to the configured callback.
type AlertEngine struct {
	enabled           bool
	criticalFamilies  map[types.DataFamily]bool
	recommendRotation bool
	onCritical        string // "log", "notify", or "block"
	callback          func(Alert)
}

// NewAlertEngine builds an AlertEngine. callback may be nil, in which
// case firing is a no-op beyond the return value Evaluate already gives
// the caller.
func NewAlertEngine(enabled bool, criticalFamilies map[types.DataFamily]bool, recommendRotation bool, onCritical string, callback func(Alert)) *AlertEngine {
	return &AlertEngine{
		enabled:           enabled,
		criticalFamilies:  criticalFamilies,
		recommendRotation: recommendRotation,
		onCritical:        onCritical,
		callback:          callback,
	}
}

// Evaluate decides whether result should fire an alert: CRITICAL alert
// level, or membership in a configured critical family. It returns the
// fired Alert (nil if none fired) so callers (the gateway facade) can
// fold it into their own response without re-deriving the decision.
func (a *AlertEngine) Evaluate(result types.ScanResult, token, sessionID string) *Alert {
	if !a.enabled {
		return nil
	}
	if result.AlertLevel != types.AlertCritical && !a.criticalFamilies[result.Family] {
		return nil
	}

	alert := Alert{
		Token:             token,
		SessionID:         sessionID,
		Family:            result.Family,
		AlertLevel:        result.AlertLevel,
		RecommendRotation: a.recommendRotation && isCredentialFamily(result.Family),
	}

	if a.callback != nil {
		a.callback(alert)
	}
	return &alert
}

// OnCritical reports the configured response mode for a fired critical
// alert: "log" (default, observe only), "notify" (surface to an external
// channel via callback), or "block" (the gateway should refuse to
// proceed). The gateway facade is responsible for acting on this value;
// the alert engine itself never blocks anything.
func (a *AlertEngine) OnCritical() string { return a.onCritical }

func isCredentialFamily(f types.DataFamily) bool {
	return f == types.FamilySecrets || f == types.FamilyFinancial
}
