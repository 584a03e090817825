package vault

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Opening and closing delimiters for a token, U+27E8/U+27E9 (mathematical
// angle brackets), chosen because they almost never occur in ordinary
// prose or code, which keeps token detection in restore() unambiguous.
const (
	tokenOpen  = "⟨"
	tokenClose = "⟩"
)

// tokenRe recognizes any token of the form ⟨TKN_{TYPE}_{8 hex}⟩.
var tokenRe = regexp.MustCompile(tokenOpen + `TKN_([A-Z0-9_]+)_([0-9A-F]{8})` + tokenClose)

// unsafeTypeChar matches any character not allowed in a sanitized token
// type segment.
var unsafeTypeChar = regexp.MustCompile(`[^A-Za-z0-9_]`)

// sanitizeType prepares dataType for embedding in a token: every
// character outside [A-Za-z0-9_] becomes an underscore, the result is
// uppercased and truncated to 20 characters, and an empty result falls
// back to "UNKNOWN". This keeps a custom detector's type name from ever
// producing a token that fails tokenRe's own validation.
func sanitizeType(dataType string) string {
	safe := unsafeTypeChar.ReplaceAllString(dataType, "_")
	safe = strings.ToUpper(safe)
	if len(safe) > 20 {
		safe = safe[:20]
	}
	if safe == "" {
		safe = "UNKNOWN"
	}
	return safe
}

// NewToken generates a fresh token string for the given data type, e.g.
// "EMAIL" -> "⟨TKN_EMAIL_A1B2C3D4⟩". dataType is sanitized first so any
// custom detector's type name still produces a valid token. The suffix
// is 4 cryptographically random bytes, hex-uppercased.
func NewToken(dataType string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token suffix: %w", err)
	}
	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("%sTKN_%s_%s%s", tokenOpen, sanitizeType(dataType), suffix, tokenClose), nil
}

// IsToken reports whether s looks like a well-formed token.
func IsToken(s string) bool {
	return tokenRe.MatchString(s)
}

// FindAllTokens returns every token substring in text, in order of
// appearance, allowing repeats.
func FindAllTokens(text string) []string {
	return tokenRe.FindAllString(text, -1)
}

// MaskToken truncates a token for safe display in logs/audit entries:
// the first 16 characters followed by an ellipsis. Tokens shorter than
// 16 characters are returned unchanged (there's nothing left to hide).
func MaskToken(token string) string {
	runes := []rune(token)
	if len(runes) <= 16 {
		return token
	}
	return string(runes[:16]) + "..."
}

// MaskSessionID truncates a session id for safe display: the first 12
// characters followed by an ellipsis.
func MaskSessionID(sessionID string) string {
	if len(sessionID) <= 12 {
		return sessionID
	}
	return sessionID[:12] + "..."
}
