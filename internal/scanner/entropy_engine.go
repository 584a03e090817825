package scanner

import (
	"math"
	"regexp"
	"strings"

	"confidential-gateway/internal/types"
)

// contextWords are nearby tokens that make a high-entropy string more
// likely to be a credential rather than incidental base64/hex noise
// (a hash in a log line, a git commit SHA, and so on).
var contextWords = []string{
	"key", "token", "secret", "password", "passwd", "credential",
	"api_key", "apikey", "auth", "bearer", "signature", "private",
}

var candidateRe = regexp.MustCompile(`[A-Za-z0-9+/=_\-.]{16,512}`)

// sensitivityEntropyAdjust shifts the effective entropy threshold by
// configured sensitivity, the same direction as the pattern engine's
// confidence threshold: looser sensitivity finds more.
var sensitivityEntropyAdjust = map[string]float64{
	"low":      0.7,
	"medium":   0.0,
	"high":     -0.3,
	"paranoid": -0.5,
}

// EntropyEngine flags high-entropy substrings as likely secrets when no
// fixed pattern recognizes their format.
type EntropyEngine struct {
	threshold          float64
	minLength          int
	maxLength          int
	requireContextWord bool
}

// NewEntropyEngine builds an EntropyEngine from scanner config values.
func NewEntropyEngine(threshold float64, minLength, maxLength int, requireContextWord bool, sensitivity string) *EntropyEngine {
	adj := sensitivityEntropyAdjust[sensitivity]
	return &EntropyEngine{
		threshold:          threshold + adj,
		minLength:          minLength,
		maxLength:          maxLength,
		requireContextWord: requireContextWord,
	}
}

// Scan finds high-entropy candidate substrings in text.
func (e *EntropyEngine) Scan(text string) []types.ScanResult {
	var out []types.ScanResult
	seen := map[string]bool{}

	for _, loc := range candidateRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		candidate := text[start:end]
		if len(candidate) < e.minLength || len(candidate) > e.maxLength {
			continue
		}
		if seen[candidate] {
			continue
		}

		ent := shannonEntropy(candidate)
		if ent < e.threshold {
			continue
		}

		if e.requireContextWord && !hasNearbyContextWord(text, start, end) {
			continue
		}

		seen[candidate] = true
		conf := types.Clamp(0.45 + (ent-3.0)*0.15)
		out = append(out, types.ScanResult{
			Value:      candidate,
			Type:       "UNKNOWN_SECRET",
			Family:     types.FamilySecrets,
			Position:   &types.Span{Start: start, End: end},
			Confidence: conf,
			AlertLevel: types.AlertCritical,
			Strategy:   "ENTROPY",
		})
	}

	return out
}

const entropyContextWindow = 40

func hasNearbyContextWord(text string, start, end int) bool {
	lo := start - entropyContextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + entropyContextWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])
	for _, w := range contextWords {
		if strings.Contains(window, w) {
			return true
		}
	}
	return false
}

// shannonEntropy computes the Shannon entropy, in bits per character, of s.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	n := float64(len(s))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}
