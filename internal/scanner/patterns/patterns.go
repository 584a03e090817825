// Package patterns holds the regex-based detectors for the PATTERN
// scanning strategy, grouped by data family: PII, secrets, financial,
// and infrastructure. Each Definition pairs a compiled regexp with the
// metadata the pattern engine needs to score and label a match.
package patterns

import "regexp"

// Validator checks a matched string beyond what the regex alone can
// express (checksum digits, for example). A Definition with no
// Validator is accepted on regex match alone.
type Validator func(match string) bool

// Definition is one named detector.
type Definition struct {
	Type       string
	Family     string
	Regex      *regexp.Regexp
	Confidence float64
	Alert      string
	Validator  Validator
}

// All returns every built-in pattern across all four families, in a
// stable order (PII, secrets, financial, infra).
func All() []Definition {
	out := make([]Definition, 0, len(PII)+len(Secrets)+len(Financial)+len(Infra))
	out = append(out, PII...)
	out = append(out, Secrets...)
	out = append(out, Financial...)
	out = append(out, Infra...)
	return out
}

func mustCompile(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}
