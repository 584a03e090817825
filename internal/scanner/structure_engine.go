package scanner

import (
	"encoding/json"
	"regexp"
	"strings"

	"confidential-gateway/internal/types"
)

// sensitiveKeyFrag matches key fragments that flag an entire structured
// value (an .env line, a JSON/YAML field) as confidential, regardless
// of the value's own shape.
var sensitiveKeyFrag = regexp.MustCompile(
	`(?i)(password|passwd|secret|token|key|credential|auth|private|apikey|api_key|access_key)`,
)

var envLineRe = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
var jsonBlockRe = regexp.MustCompile(`\{[^{}]{20,2000}\}`)
var yamlLineRe = regexp.MustCompile(`(?m)^([ \t]*)([A-Za-z_][A-Za-z0-9_\-]*)\s*:\s*(.+)$`)

// StructureEngine recognizes confidential values embedded in structured
// text blocks: .env-style assignment lines, inline JSON objects, and
// YAML-style key/value lines.
type StructureEngine struct{}

// NewStructureEngine builds a StructureEngine.
func NewStructureEngine() *StructureEngine { return &StructureEngine{} }

// Scan finds structured confidential values in text.
func (e *StructureEngine) Scan(text string) []types.ScanResult {
	seen := map[string]bool{}
	var out []types.ScanResult

	out = append(out, e.scanEnv(text, seen)...)
	out = append(out, e.scanJSON(text, seen)...)
	out = append(out, e.scanYAML(text, seen)...)
	return out
}

func (e *StructureEngine) scanEnv(text string, seen map[string]bool) []types.ScanResult {
	var out []types.ScanResult
	for _, m := range envLineRe.FindAllStringSubmatchIndex(text, -1) {
		key := text[m[2]:m[3]]
		if !sensitiveKeyFrag.MatchString(key) {
			continue
		}
		valStart, valEnd := m[4], m[5]
		val := strings.Trim(text[valStart:valEnd], `"'`)
		if val == "" || seen[val] {
			continue
		}
		seen[val] = true
		out = append(out, e.makeResult(val, valStart, valEnd, key))
	}
	return out
}

func (e *StructureEngine) scanJSON(text string, seen map[string]bool) []types.ScanResult {
	var out []types.ScanResult
	for _, loc := range jsonBlockRe.FindAllStringIndex(text, -1) {
		block := text[loc[0]:loc[1]]
		var obj map[string]any
		if err := json.Unmarshal([]byte(block), &obj); err != nil {
			continue
		}
		for key, val := range flattenJSON(obj) {
			if !sensitiveKeyFrag.MatchString(key) {
				continue
			}
			s, ok := val.(string)
			if !ok || s == "" || seen[s] {
				continue
			}
			seen[s] = true
			// Position within the block is not recoverable after
			// JSON decoding; anchor to the block's own span so the
			// result still participates in overlap-based dedup.
			out = append(out, e.makeResult(s, loc[0], loc[1], key))
		}
	}
	return out
}

func (e *StructureEngine) scanYAML(text string, seen map[string]bool) []types.ScanResult {
	var out []types.ScanResult
	for _, m := range yamlLineRe.FindAllStringSubmatchIndex(text, -1) {
		key := text[m[4]:m[5]]
		if !sensitiveKeyFrag.MatchString(key) {
			continue
		}
		valStart, valEnd := m[6], m[7]
		val := strings.Trim(text[valStart:valEnd], `"' `)
		if val == "" || seen[val] {
			continue
		}
		seen[val] = true
		out = append(out, e.makeResult(val, valStart, valEnd, key))
	}
	return out
}

func (e *StructureEngine) makeResult(value string, start, end int, key string) types.ScanResult {
	return types.ScanResult{
		Value:      value,
		Type:       "STRUCTURED_SECRET",
		Family:     types.FamilySecrets,
		Position:   &types.Span{Start: start, End: end},
		Confidence: 0.72,
		AlertLevel: types.AlertCritical,
		Strategy:   "STRUCTURE",
		FieldName:  key,
	}
}

// flattenJSON recursively flattens nested maps into dotted key paths,
// keeping only leaf string values other engines can test a key fragment
// against (nested arrays/objects below a matched key are not descended
// further as structured text; that shape is scanned by the gateway's
// dict-mode path, not this text-mode structure engine).
func flattenJSON(obj map[string]any) map[string]any {
	out := map[string]any{}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			full := k
			if prefix != "" {
				full = prefix + "." + k
			}
			switch vv := v.(type) {
			case map[string]any:
				walk(full, vv)
			default:
				out[full] = v
			}
		}
	}
	walk("", obj)
	return out
}
