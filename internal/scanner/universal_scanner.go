// Package scanner implements the multi-strategy detection pipeline:
// pattern, entropy, context, structure, and (optionally) NLP engines
// each contribute candidate findings, which are then deduplicated into
// one non-overlapping, highest-confidence result per value.
package scanner

import (
	"sort"
	"strings"

	"confidential-gateway/internal/types"
)

// Scanner is the interface the gateway depends on; UniversalScanner is
// its only implementation but tests substitute simpler fakes against it.
type Scanner interface {
	Scan(input any) []types.ScanResult
}

// UniversalScanner runs all enabled strategies over either flat text or
// a nested map (JSON-like payload), merging and deduplicating results.
type UniversalScanner struct {
	pattern   *PatternEngine
	entropy   *EntropyEngine
	context   *ContextEngine
	structure *StructureEngine
	nlp       *NLPEngine

	entropyEnabled bool
	nlpEnabled     bool
	safeFields     map[string]bool

	// families is the enabled-families allowlist shared by every engine.
	// A nil/empty map means no restriction (all families pass).
	families map[types.DataFamily]bool
}

// Config bundles the constructor arguments UniversalScanner needs,
// mirroring the nested "scanner" section of the gateway config.
type Config struct {
	Families           []string
	Sensitivity        string
	SafeFields         []string
	EntropyEnabled     bool
	EntropyThreshold   float64
	EntropyMinLength   int
	EntropyMaxLength   int
	EntropyNeedsCtxWord bool
	NLPEnabled         bool
	NLPDetector        NamedEntityDetector
	NLPMinConfidence   float64
	NLPContextBoost    float64
}

// NewUniversalScanner builds a scanner from cfg.
func NewUniversalScanner(cfg Config) *UniversalScanner {
	safe := make(map[string]bool, len(cfg.SafeFields))
	for _, f := range cfg.SafeFields {
		safe[strings.ToLower(f)] = true
	}
	var families map[types.DataFamily]bool
	if len(cfg.Families) > 0 {
		families = make(map[types.DataFamily]bool, len(cfg.Families))
		for _, f := range cfg.Families {
			families[types.DataFamily(f)] = true
		}
	}
	return &UniversalScanner{
		pattern:   NewPatternEngine(cfg.Families, cfg.Sensitivity),
		entropy:   NewEntropyEngine(cfg.EntropyThreshold, cfg.EntropyMinLength, cfg.EntropyMaxLength, cfg.EntropyNeedsCtxWord, cfg.Sensitivity),
		context:   NewContextEngine(),
		structure: NewStructureEngine(),
		nlp:       NewNLPEngine(cfg.NLPDetector, cfg.NLPMinConfidence, cfg.NLPContextBoost),

		entropyEnabled: cfg.EntropyEnabled,
		nlpEnabled:     cfg.NLPEnabled,
		safeFields:     safe,
		families:       families,
	}
}

// Scan dispatches to text or nested-map scanning depending on input's
// dynamic type.
func (s *UniversalScanner) Scan(input any) []types.ScanResult {
	switch v := input.(type) {
	case string:
		return s.scanText(v)
	case map[string]any:
		return s.scanDict(v, "")
	default:
		return nil
	}
}

// scanText runs every enabled strategy over one block of text, in a
// fixed order: pattern, entropy, context boost, context extraction,
// structure, then NLP (which alone is told what's already been found).
func (s *UniversalScanner) scanText(text string) []types.ScanResult {
	var all []types.ScanResult

	all = append(all, s.filterFamily(s.pattern.Scan(text))...)

	if s.entropyEnabled {
		all = append(all, s.filterFamily(s.entropy.Scan(text))...)
	}

	s.context.Boost(text, all)
	all = append(all, s.filterFamily(s.context.Scan(text, all))...)

	all = append(all, s.filterFamily(s.structure.Scan(text))...)

	if s.nlpEnabled {
		all = append(all, s.filterFamily(s.nlp.Scan(text, all))...)
	}

	return deduplicate(all)
}

// filterFamily drops results whose family is not in the enabled-families
// allowlist. Every engine's contribution passes through this boundary
// before joining the accumulated result set, so a disabled family is
// excluded regardless of which strategy would have found it.
func (s *UniversalScanner) filterFamily(results []types.ScanResult) []types.ScanResult {
	if len(s.families) == 0 {
		return results
	}
	out := make([]types.ScanResult, 0, len(results))
	for _, r := range results {
		if s.families[r.Family] {
			out = append(out, r)
		}
	}
	return out
}

// scanDict walks a nested map, skipping safe-listed field names at every
// nesting level (case-insensitive) and text-scanning every other string
// leaf, stamping the originating field name onto each result.
func (s *UniversalScanner) scanDict(m map[string]any, prefix string) []types.ScanResult {
	var out []types.ScanResult
	for key, val := range m {
		if s.safeFields[strings.ToLower(key)] {
			continue
		}
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch vv := val.(type) {
		case map[string]any:
			out = append(out, s.scanDict(vv, full)...)
		case string:
			for _, r := range s.scanText(vv) {
				r.FieldName = full
				out = append(out, r)
			}
		default:
			// numbers, bools, nil, lists: not scanned as text.
		}
	}
	return out
}

// deduplicate is the scanner-wide two-phase merge: first collapse
// repeated exact values to their highest-confidence detection, then walk
// the remaining results left to right by position, dropping anything
// that overlaps a result already kept.
func deduplicate(results []types.ScanResult) []types.ScanResult {
	if len(results) == 0 {
		return nil
	}

	byValue := make(map[string]types.ScanResult, len(results))
	for _, r := range results {
		existing, ok := byValue[r.Value]
		if !ok || r.Confidence > existing.Confidence {
			byValue[r.Value] = r
		}
	}

	unique := make([]types.ScanResult, 0, len(byValue))
	for _, r := range byValue {
		unique = append(unique, r)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		pi, pj := startOf(unique[i]), startOf(unique[j])
		if pi != pj {
			return pi < pj
		}
		return unique[i].Confidence > unique[j].Confidence
	})

	out := make([]types.ScanResult, 0, len(unique))
	lastEnd := -1
	for _, r := range unique {
		start := startOf(r)
		if r.Position == nil || start >= lastEnd {
			out = append(out, r)
			if r.Position != nil {
				lastEnd = r.Position.End
			}
		}
	}
	return out
}

func startOf(r types.ScanResult) int {
	if r.Position == nil {
		return 0
	}
	return r.Position.Start
}
