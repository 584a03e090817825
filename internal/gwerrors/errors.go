// Package gwerrors defines the closed taxonomy of errors the gateway and
// its internal components raise. Every type embeds Base so callers can
// extract a human message plus a details map, and every type supports
// errors.As / errors.Is through its own concrete type — a single
// generic "gateway error" type is deliberately avoided so that
//
//	var denied *gwerrors.VaultAccessError
//	if errors.As(err, &denied) { ... }
//
// discriminates cleanly at the call site.
package gwerrors

import "fmt"

// Base carries a message and optional structured details. It is embedded
// by every concrete error type in this package.
type Base struct {
	Message string
	Details map[string]any
}

func (b *Base) Error() string {
	if len(b.Details) == 0 {
		return b.Message
	}
	return fmt.Sprintf("%s %v", b.Message, b.Details)
}

// VaultAccessError is raised when vault access is denied: session
// mismatch, disallowed caller, revoked token, absent token.
type VaultAccessError struct{ Base }

// NewVaultAccessError builds a VaultAccessError with the given details.
func NewVaultAccessError(msg string, details map[string]any) *VaultAccessError {
	return &VaultAccessError{Base{Message: msg, Details: details}}
}

// TokenExpiredError specializes VaultAccessError for entries past expiry.
// It embeds VaultAccessError (not Base directly) so
// errors.As(err, &(*VaultAccessError)(nil)) also matches expired tokens,
// the way the original source's exception hierarchy intends.
type TokenExpiredError struct{ VaultAccessError }

// NewTokenExpiredError builds a TokenExpiredError with the given details.
func NewTokenExpiredError(msg string, details map[string]any) *TokenExpiredError {
	return &TokenExpiredError{VaultAccessError{Base{Message: msg, Details: details}}}
}

// ConfigError is raised when a configuration fails validation.
type ConfigError struct{ Base }

// NewConfigError builds a ConfigError with the given details.
func NewConfigError(msg string, details map[string]any) *ConfigError {
	return &ConfigError{Base{Message: msg, Details: details}}
}

// ScannerError is raised on an unrecoverable scanner fault. A single
// malformed regex is never the cause — those are skipped per-pattern.
type ScannerError struct{ Base }

// NewScannerError builds a ScannerError with the given details.
func NewScannerError(msg string, details map[string]any) *ScannerError {
	return &ScannerError{Base{Message: msg, Details: details}}
}

// ResolverError is raised when the resolver cannot process a response
// and strict/non-lenient behavior is configured.
type ResolverError struct{ Base }

// NewResolverError builds a ResolverError with the given details.
func NewResolverError(msg string, details map[string]any) *ResolverError {
	return &ResolverError{Base{Message: msg, Details: details}}
}

// BackendError is raised when the vault storage backend fails an
// operation for reasons other than access control (I/O, encoding, a
// duplicate-token collision).
type BackendError struct{ Base }

// NewBackendError builds a BackendError with the given details.
func NewBackendError(msg string, details map[string]any) *BackendError {
	return &BackendError{Base{Message: msg, Details: details}}
}

// ConfidentialDataError is raised when confidential data is about to
// leave the gateway boundary without having gone through protect()
// first — e.g. a caller passing raw scan results through unsubstituted.
type ConfidentialDataError struct{ Base }

// NewConfidentialDataError builds a ConfidentialDataError with the given details.
func NewConfidentialDataError(msg string, details map[string]any) *ConfidentialDataError {
	return &ConfidentialDataError{Base{Message: msg, Details: details}}
}
