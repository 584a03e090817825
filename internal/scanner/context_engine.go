package scanner

import (
	"regexp"
	"strings"

	"confidential-gateway/internal/types"
)

// sensitiveFieldWords are key fragments that indicate a nearby or
// assigned value is confidential even when no pattern recognizes its
// shape (a one-off internal employee ID, a free-text "secret" field).
var sensitiveFieldWords = []string{
	"password", "passwd", "secret", "token", "key", "credential", "auth",
	"ssn", "social_security", "aadhaar", "pan_number", "account_number",
	"routing_number", "card_number", "cvv", "pin", "private", "apikey",
	"api_key", "access_key", "secret_key", "client_secret", "bearer",
	"session_id", "dob", "date_of_birth", "salary", "license", "passport",
	"credit_card", "bank_account", "phone_number", "email_address",
	"address", "national_id",
}

var fieldKeywordRe = buildFieldKeywordRe()

func buildFieldKeywordRe() *regexp.Regexp {
	// Longest first so e.g. "secret_key" matches before the bare "key"
	// fragment inside it.
	words := append([]string(nil), sensitiveFieldWords...)
	for i := 1; i < len(words); i++ {
		for j := i; j > 0 && len(words[j-1]) < len(words[j]); j-- {
			words[j-1], words[j] = words[j], words[j-1]
		}
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(words, "|") + `)`)
}

// assignmentRe captures a "key = value" / "key: value" / "key value"
// pairing where key looks like a sensitive field name.
var assignmentRe = regexp.MustCompile(
	`(?i)\b([A-Za-z][A-Za-z0-9_]{1,40})\s*[:=]\s*["']?([^\s"',;]{3,128})["']?`,
)

// naturalLanguageCredentialRe recognizes prose that carries a username
// and password/secret together, e.g. "connect to db-host using admin
// and the password hunter2", or "login as root with password s3cr3t!".
// This has no equivalent fixed-format pattern: the value is whatever
// word follows the cue phrase, not a recognizable shape.
var naturalLanguageCredentialRe = regexp.MustCompile(
	`(?i)\b(?:using|with|as)\s+(?:user(?:name)?\s+)?([A-Za-z0-9_.\-]{2,64})\s+and\s+(?:the\s+)?password\s+(?:is\s+)?["']?([^\s"',.;]{3,64})["']?`,
)

// BoostAmount is added to a colliding detection's confidence when a
// sensitive field keyword appears within the window.
const BoostAmount = 0.12

const contextWindow = 80

// ContextEngine adjusts confidence for values near sensitive field names
// and separately extracts key=value pairs and natural-language
// credential phrasing that no fixed pattern would catch.
type ContextEngine struct{}

// NewContextEngine builds a ContextEngine.
func NewContextEngine() *ContextEngine { return &ContextEngine{} }

// Boost raises the confidence of any result whose span sits within
// contextWindow characters of a sensitive field keyword.
func (e *ContextEngine) Boost(text string, results []types.ScanResult) {
	for i := range results {
		pos := results[i].Position
		if pos == nil {
			continue
		}
		lo := pos.Start - contextWindow
		if lo < 0 {
			lo = 0
		}
		hi := pos.End + contextWindow
		if hi > len(text) {
			hi = len(text)
		}
		if fieldKeywordRe.MatchString(text[lo:hi]) {
			results[i].Confidence = types.Clamp(results[i].Confidence + BoostAmount)
		}
	}
}

// Scan extracts key=value assignments whose key looks sensitive, plus
// natural-language "using X and password Y" phrasing. existing is used
// to avoid re-reporting a span another engine already captured.
func (e *ContextEngine) Scan(text string, existing []types.ScanResult) []types.ScanResult {
	var out []types.ScanResult

	for _, m := range assignmentRe.FindAllStringSubmatchIndex(text, -1) {
		key := text[m[2]:m[3]]
		if !fieldKeywordRe.MatchString(key) {
			continue
		}
		valStart, valEnd := m[4], m[5]
		span := types.Span{Start: valStart, End: valEnd}
		if overlapsAny(span, existing) || overlapsAny(span, out) {
			continue
		}
		family, alert, typ := inferFromKey(key)
		out = append(out, types.ScanResult{
			Value:      text[valStart:valEnd],
			Type:       typ,
			Family:     family,
			Position:   &span,
			Confidence: 0.75,
			AlertLevel: alert,
			Strategy:   "CONTEXT",
			FieldName:  key,
		})
	}

	for _, m := range naturalLanguageCredentialRe.FindAllStringSubmatchIndex(text, -1) {
		userStart, userEnd := m[2], m[3]
		passStart, passEnd := m[4], m[5]

		userSpan := types.Span{Start: userStart, End: userEnd}
		if !overlapsAny(userSpan, existing) && !overlapsAny(userSpan, out) {
			out = append(out, types.ScanResult{
				Value:      text[userStart:userEnd],
				Type:       "CREDENTIAL_USERNAME",
				Family:     types.FamilySecrets,
				Position:   &userSpan,
				Confidence: 0.65,
				AlertLevel: types.AlertMedium,
				Strategy:   "CONTEXT",
			})
		}

		passSpan := types.Span{Start: passStart, End: passEnd}
		if !overlapsAny(passSpan, existing) && !overlapsAny(passSpan, out) {
			out = append(out, types.ScanResult{
				Value:      text[passStart:passEnd],
				Type:       "CREDENTIAL_PASSWORD",
				Family:     types.FamilySecrets,
				Position:   &passSpan,
				Confidence: 0.88,
				AlertLevel: types.AlertCritical,
				Strategy:   "CONTEXT",
			})
		}
	}

	return out
}

func overlapsAny(span types.Span, results []types.ScanResult) bool {
	for _, r := range results {
		if r.Position != nil && span.Overlaps(*r.Position) {
			return true
		}
	}
	return false
}

// inferFromKey maps a sensitive key fragment to a family, alert level,
// and result type for the CONTEXT strategy's key=value extraction.
func inferFromKey(key string) (types.DataFamily, types.AlertLevel, string) {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "password"), strings.Contains(k, "passwd"),
		strings.Contains(k, "secret"), strings.Contains(k, "token"),
		strings.Contains(k, "key"), strings.Contains(k, "credential"),
		strings.Contains(k, "auth"), strings.Contains(k, "bearer"):
		return types.FamilySecrets, types.AlertCritical, "CONTEXT_SECRET"
	case strings.Contains(k, "card"), strings.Contains(k, "account"),
		strings.Contains(k, "routing"), strings.Contains(k, "cvv"),
		strings.Contains(k, "pin"):
		return types.FamilyFinancial, types.AlertCritical, "CONTEXT_FINANCIAL"
	case strings.Contains(k, "ssn"), strings.Contains(k, "social_security"),
		strings.Contains(k, "aadhaar"), strings.Contains(k, "pan_number"),
		strings.Contains(k, "dob"), strings.Contains(k, "date_of_birth"),
		strings.Contains(k, "passport"), strings.Contains(k, "license"),
		strings.Contains(k, "national_id"), strings.Contains(k, "phone"),
		strings.Contains(k, "email"), strings.Contains(k, "address"):
		return types.FamilyPII, types.AlertHigh, "CONTEXT_PII"
	case strings.Contains(k, "salary"):
		return types.FamilyBusiness, types.AlertMedium, "CONTEXT_BUSINESS"
	case strings.Contains(k, "session_id"):
		return types.FamilyInfra, types.AlertMedium, "CONTEXT_INFRA"
	default:
		return types.FamilySecrets, types.AlertMedium, "CONTEXT_GENERIC"
	}
}
