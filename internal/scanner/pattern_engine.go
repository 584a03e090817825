package scanner

import (
	"sort"

	"confidential-gateway/internal/scanner/patterns"
	"confidential-gateway/internal/types"
)

// sensitivityThreshold maps a configured sensitivity level to the minimum
// confidence a pattern match needs to survive. Lower sensitivity means a
// higher bar (fewer, more certain findings); "paranoid" reports almost
// everything a pattern recognizes.
var sensitivityThreshold = map[string]float64{
	"low":      0.85,
	"medium":   0.70,
	"high":     0.55,
	"paranoid": 0.40,
}

// PatternEngine runs the fixed regex/validator library against text.
type PatternEngine struct {
	defs      []patterns.Definition
	threshold float64
}

// NewPatternEngine builds a PatternEngine scoped to families and gated at
// the confidence threshold implied by sensitivity.
func NewPatternEngine(families []string, sensitivity string) *PatternEngine {
	wanted := make(map[string]bool, len(families))
	for _, f := range families {
		wanted[f] = true
	}
	var defs []patterns.Definition
	for _, d := range patterns.All() {
		if wanted[d.Family] {
			defs = append(defs, d)
		}
	}
	th, ok := sensitivityThreshold[sensitivity]
	if !ok {
		th = sensitivityThreshold["medium"]
	}
	return &PatternEngine{defs: defs, threshold: th}
}

// Scan runs every enabled pattern against text and returns deduplicated
// matches, highest-confidence match winning at each position.
func (e *PatternEngine) Scan(text string) []types.ScanResult {
	var results []types.ScanResult

	for _, def := range e.defs {
		baseConf := def.Confidence
		if baseConf < e.threshold {
			continue
		}

		matches := safeFindAll(def, text)
		for _, m := range matches {
			conf := baseConf
			if def.Validator != nil {
				if def.Validator(m.text) {
					conf = clampConfidence(conf + 0.15)
				} else {
					conf = conf * 0.3
					if conf < e.threshold {
						continue
					}
				}
			}
			results = append(results, types.ScanResult{
				Value:      m.text,
				Type:       def.Type,
				Family:     types.DataFamily(def.Family),
				Position:   &types.Span{Start: m.start, End: m.end},
				Confidence: conf,
				AlertLevel: types.AlertLevel(def.Alert),
				Strategy:   "PATTERN",
			})
		}
	}

	return deduplicatePositional(results)
}

func clampConfidence(c float64) float64 { return types.Clamp(c) }

type patternMatch struct {
	text  string
	start int
	end   int
}

// safeFindAll runs def.Regex.FindAllStringIndex and recovers from a panic
// in a misbehaving pattern so one bad detector never aborts a scan.
func safeFindAll(def patterns.Definition, text string) (out []patternMatch) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	idx := def.Regex.FindAllStringIndex(text, -1)
	out = make([]patternMatch, 0, len(idx))
	for _, pair := range idx {
		out = append(out, patternMatch{text: text[pair[0]:pair[1]], start: pair[0], end: pair[1]})
	}
	return out
}

// deduplicatePositional performs the pattern engine's own single-pass
// dedup: sort by (start, -confidence), then keep non-overlapping spans
// left to right. This runs per-engine, ahead of the scanner-wide
// value-based dedup in universal_scanner.go.
func deduplicatePositional(results []types.ScanResult) []types.ScanResult {
	if len(results) == 0 {
		return results
	}
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := results[i].Position, results[j].Position
		if si.Start != sj.Start {
			return si.Start < sj.Start
		}
		return results[i].Confidence > results[j].Confidence
	})

	out := make([]types.ScanResult, 0, len(results))
	lastEnd := -1
	for _, r := range results {
		if r.Position.Start >= lastEnd {
			out = append(out, r)
			lastEnd = r.Position.End
		}
	}
	return out
}
