// Package vault stores scanned confidential values behind per-session
// AES-256-GCM encryption, returning an opaque token in their place, and
// later reverses that substitution only for an authorized caller holding
// the matching session id.
package vault

import (
	"time"

	"confidential-gateway/internal/gwerrors"
	"confidential-gateway/internal/types"
)

// Vault ties together a storage Backend, per-session encryption, hard-
// coded access control, the append-only audit log, and the alert engine.
type Vault struct {
	backend       Backend
	secret        string
	encryption    bool
	tokenExpiry   time.Duration
	audit         *AuditLog
	alerts        *AlertEngine
}

// Options configures a new Vault.
type Options struct {
	Backend            Backend
	Secret             string
	Encryption         bool
	TokenExpiryMinutes int
	Alerts             *AlertEngine
}

// New builds a Vault. A nil Alerts disables alerting.
func New(opts Options) *Vault {
	if opts.Alerts == nil {
		opts.Alerts = NewAlertEngine(false, nil, false, "log", nil)
	}
	return &Vault{
		backend:     opts.Backend,
		secret:      opts.Secret,
		encryption:  opts.Encryption,
		tokenExpiry: time.Duration(opts.TokenExpiryMinutes) * time.Minute,
		audit:       NewAuditLog(),
		alerts:      opts.Alerts,
	}
}

// AuditLog exposes the vault's audit trail for projection by the gateway
// facade's audit() operation.
func (v *Vault) AuditLog() *AuditLog { return v.audit }

// Store seals result.Value under sessionID and returns a fresh token
// standing in for it. Only RoleOwner may call this.
func (v *Vault) Store(role Role, sessionID string, result types.ScanResult) (string, *Alert, error) {
	if !CanStore(role) {
		v.audit.Record(OpStore, ResultDenied, "", sessionID, role)
		return "", nil, gwerrors.NewVaultAccessError(
			"role is not permitted to store vault entries",
			map[string]any{"role": string(role), "reason": "role_denied"},
		)
	}

	token, err := NewToken(result.Type)
	if err != nil {
		return "", nil, gwerrors.NewBackendError("failed to generate token", map[string]any{"error": err.Error()})
	}

	sealed := []byte(result.Value)
	if v.encryption {
		sealed, err = Encrypt(v.secret, sessionID, result.Value)
		if err != nil {
			return "", nil, gwerrors.NewBackendError("failed to encrypt value", map[string]any{"error": err.Error()})
		}
	}

	now := time.Now()
	entry := Entry{
		Token:      token,
		SessionID:  sessionID,
		Sealed:     sealed,
		Encrypted:  v.encryption,
		DataType:   result.Type,
		Family:     string(result.Family),
		AlertLevel: string(result.AlertLevel),
		CreatedAt:  now,
		ExpiresAt:  now.Add(v.tokenExpiry),
	}

	if err := v.backend.Put(entry); err != nil {
		return "", nil, gwerrors.NewBackendError("backend failed to store entry", map[string]any{"error": err.Error()})
	}

	v.audit.Record(OpStore, ResultSuccess, token, sessionID, role)
	alert := v.alerts.Evaluate(result, token, sessionID)
	return token, alert, nil
}

// Retrieve returns the original value for token, if role and sessionID
// are both authorized and the entry has neither expired nor been
// revoked.
func (v *Vault) Retrieve(role Role, sessionID, token string) (string, error) {
	if !CanRetrieve(role) {
		v.audit.Record(OpRetrieve, ResultDenied, token, sessionID, role)
		return "", gwerrors.NewVaultAccessError(
			"role is not permitted to retrieve vault entries",
			map[string]any{"role": string(role), "reason": "role_denied"},
		)
	}

	entry, ok, err := v.backend.Get(token)
	if err != nil {
		return "", gwerrors.NewBackendError("backend failed to read entry", map[string]any{"error": err.Error()})
	}
	if !ok {
		v.audit.Record(OpRetrieve, ResultNotFound, token, sessionID, role)
		return "", gwerrors.NewVaultAccessError(
			"unknown token",
			map[string]any{"token": MaskToken(token), "reason": "not_found"},
		)
	}

	if entry.SessionID != sessionID {
		v.audit.Record(OpRetrieve, ResultDenied, token, sessionID, role)
		return "", gwerrors.NewVaultAccessError(
			"token does not belong to the requesting session",
			map[string]any{"token": MaskToken(token), "reason": "session_mismatch"},
		)
	}

	if entry.Revoked {
		v.audit.Record(OpRetrieve, ResultRevoked, token, sessionID, role)
		return "", gwerrors.NewVaultAccessError(
			"session was revoked",
			map[string]any{"token": MaskToken(token), "reason": "revoked"},
		)
	}

	if time.Now().After(entry.ExpiresAt) {
		v.audit.Record(OpRetrieve, ResultExpired, token, sessionID, role)
		return "", gwerrors.NewTokenExpiredError(
			"token has expired",
			map[string]any{"token": MaskToken(token), "expiredAt": entry.ExpiresAt, "reason": "expired"},
		)
	}

	var plaintext string
	if entry.Encrypted {
		plaintext, err = Decrypt(v.secret, sessionID, entry.Sealed)
		if err != nil {
			return "", gwerrors.NewBackendError(
				"failed to decrypt value",
				map[string]any{"error": err.Error(), "reason": "decrypt_failed"},
			)
		}
	} else {
		plaintext = string(entry.Sealed)
	}

	v.audit.Record(OpRetrieve, ResultSuccess, token, sessionID, role)
	return plaintext, nil
}

// RevokeSession marks every entry for sessionID as inaccessible without
// deleting the underlying sealed data.
func (v *Vault) RevokeSession(sessionID string) (int, error) {
	n, err := v.backend.RevokeSession(sessionID)
	if err != nil {
		return 0, gwerrors.NewBackendError("backend failed to revoke session", map[string]any{"error": err.Error()})
	}
	v.audit.Record(OpRevoke, ResultSuccess, "", sessionID, RoleOwner)
	return n, nil
}

// PurgeSession permanently deletes every entry for sessionID.
func (v *Vault) PurgeSession(sessionID string) (int, error) {
	n, err := v.backend.DeleteSession(sessionID)
	if err != nil {
		return 0, gwerrors.NewBackendError("backend failed to purge session", map[string]any{"error": err.Error()})
	}
	v.audit.Record(OpPurge, ResultSuccess, "", sessionID, RoleOwner)
	return n, nil
}

// Close releases the underlying backend's resources.
func (v *Vault) Close() error {
	return v.backend.Close()
}
