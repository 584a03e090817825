// Package resolver reverses token substitution in a model's response,
// replacing each recognized token with the original value the session
// that requested it is authorized to see.
package resolver

import (
	"errors"
	"strings"

	"confidential-gateway/internal/gwerrors"
	"confidential-gateway/internal/metrics"
	"confidential-gateway/internal/vault"
)

// Resolver reverses vault tokens back into their original values.
type Resolver struct {
	v                     *vault.Vault
	strictSession         bool
	leaveUnresolvedTokens bool
	metrics               *metrics.Metrics
}

// New builds a Resolver. strictSession and leaveUnresolvedTokens gate
// independently, each on its own failure class: strictSession, when
// true, causes Resolve to return a ResolverError the first time a token
// turns out to belong to a different session, instead of leaving it in
// place. leaveUnresolvedTokens controls what happens to a token that
// fails to resolve for any other reason (unknown, revoked, expired, a
// decryption failure) — true leaves the literal token text in the
// output, false removes it, leaving a gap.
func New(v *vault.Vault, strictSession, leaveUnresolvedTokens bool, m *metrics.Metrics) *Resolver {
	return &Resolver{
		v:                     v,
		strictSession:         strictSession,
		leaveUnresolvedTokens: leaveUnresolvedTokens,
		metrics:               m,
	}
}

// Resolve replaces every token in text belonging to sessionID with its
// original value. Tokens belonging to a different session, or otherwise
// inaccessible, are handled per strictSession/leaveUnresolvedTokens.
func (r *Resolver) Resolve(sessionID, text string) (string, error) {
	tokens := vault.FindAllTokens(text)
	if len(tokens) == 0 {
		return text, nil
	}

	// Resolve each distinct token once even if it appears multiple times.
	resolved := make(map[string]string, len(tokens))
	seen := map[string]bool{}

	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true

		value, err := r.v.Retrieve(vault.RoleResolver, sessionID, tok)
		if err != nil {
			if r.metrics != nil {
				r.metrics.TokensUnresolved.Add(1)
			}
			if r.strictSession && isSessionMismatch(err) {
				return "", gwerrors.NewResolverError(
					"failed to resolve token",
					map[string]any{"token": vault.MaskToken(tok), "error": err.Error()},
				)
			}
			if r.leaveUnresolvedTokens {
				resolved[tok] = tok
			} else {
				resolved[tok] = ""
			}
			continue
		}

		if r.metrics != nil {
			r.metrics.TokensResolved.Add(1)
		}
		resolved[tok] = value
	}

	return substitute(text, resolved), nil
}

// isSessionMismatch reports whether err is the specific VaultAccessError
// the vault raises when a token exists but belongs to a different
// session — the only failure class strictSession aborts on. Every other
// failure (unknown token, revoked, expired, a decryption error) falls
// through to leaveUnresolvedTokens instead.
func isSessionMismatch(err error) bool {
	var vaultErr *gwerrors.VaultAccessError
	if !errors.As(err, &vaultErr) {
		return false
	}
	reason, _ := vaultErr.Details["reason"].(string)
	return reason == "session_mismatch"
}

// substitute replaces each key in replacements with its value, longest
// key first so one token's delimiter text can never be a substring
// match inside another (tokens have a fixed fixed-width hex suffix so
// this is mostly moot, but it keeps the same shape as the tokenizer's
// own longest-first substitution rule).
func substitute(text string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return text
	}
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j-1]) < len(keys[j]); j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	out := text
	for _, k := range keys {
		out = strings.ReplaceAll(out, k, replacements[k])
	}
	return out
}
