package scanner

import "confidential-gateway/internal/types"

// NamedEntityDetector is a pluggable named-entity recognizer. A real
// implementation might call out to a local model server; this module
// ships none and relies on the NoopDetector default so the NLP strategy
// degrades gracefully when no model is configured, rather than failing
// the scan.
type NamedEntityDetector interface {
	// Detect returns entity spans found in text. existing is provided so
	// an implementation can skip re-scanning already-claimed spans.
	Detect(text string, existing []types.ScanResult) []types.ScanResult
}

// NoopDetector is the default NamedEntityDetector: it finds nothing.
// Configuring scanner.nlp.enabled without wiring a real detector falls
// back to this, matching the "optional, degrades gracefully" behavior
// the other strategies don't need because they have no external
// dependency to begin with.
type NoopDetector struct{}

// Detect always returns nil.
func (NoopDetector) Detect(string, []types.ScanResult) []types.ScanResult { return nil }

// NLPEngine wraps a NamedEntityDetector, applying the configured minimum
// confidence and an additional boost when a result lands near a
// sensitive field keyword (mirrors ContextEngine.Boost without a second
// dependency on it).
type NLPEngine struct {
	detector      NamedEntityDetector
	minConfidence float64
	contextBoost  float64
}

// NewNLPEngine builds an NLPEngine. A nil detector is replaced by
// NoopDetector.
func NewNLPEngine(detector NamedEntityDetector, minConfidence, contextBoost float64) *NLPEngine {
	if detector == nil {
		detector = NoopDetector{}
	}
	return &NLPEngine{detector: detector, minConfidence: minConfidence, contextBoost: contextBoost}
}

// Scan runs the configured detector and filters by minimum confidence.
func (e *NLPEngine) Scan(text string, existing []types.ScanResult) []types.ScanResult {
	found := e.detector.Detect(text, existing)
	if len(found) == 0 {
		return nil
	}

	out := make([]types.ScanResult, 0, len(found))
	for _, r := range found {
		if r.Confidence < e.minConfidence {
			continue
		}
		if r.Position != nil && hasNearbyContextWord(text, r.Position.Start, r.Position.End) {
			r.Confidence = types.Clamp(r.Confidence + e.contextBoost)
		}
		r.Strategy = "NLP"
		out = append(out, r)
	}
	return out
}
