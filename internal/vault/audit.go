package vault

import (
	"sync"
	"time"
)

// Operation names the kind of vault call an AuditEntry records.
type Operation string

const (
	OpStore    Operation = "store"
	OpRetrieve Operation = "retrieve"
	OpRevoke   Operation = "revoke"
	OpPurge    Operation = "purge"
)

// Result names the outcome of an audited operation.
type Result string

const (
	ResultSuccess  Result = "success"
	ResultDenied   Result = "denied"
	ResultRevoked  Result = "revoked"
	ResultExpired  Result = "expired"
	ResultNotFound Result = "not_found"
)

// AuditEntry is one append-only audit log record. Tokens and session ids
// are stored masked; the raw values are never written to the audit log.
type AuditEntry struct {
	Timestamp     time.Time
	Operation     Operation
	Result        Result
	MaskedToken   string
	MaskedSession string
	Role          Role
}

// AuditLog is an in-process, append-only record of vault operations.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewAuditLog builds an empty AuditLog.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Record appends one entry. token/sessionID are masked before storage.
func (a *AuditLog) Record(op Operation, result Result, token, sessionID string, role Role) {
	entry := AuditEntry{
		Timestamp:     time.Now(),
		Operation:     op,
		Result:        result,
		MaskedToken:   MaskToken(token),
		MaskedSession: MaskSessionID(sessionID),
		Role:          role,
	}
	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()
}

// ForSession returns every audit entry whose masked session prefix
// matches the given session id's own mask, in the order they were
// recorded. Because session ids are masked before storage, this matches
// on the preserved 12-character prefix, which is unique across sessions
// in practice (session ids are uuid4-derived).
func (a *AuditLog) ForSession(sessionID string) []AuditEntry {
	return a.Filter(sessionID, "", "")
}

// All returns every recorded audit entry.
func (a *AuditLog) All() []AuditEntry {
	return a.Filter("", "", "")
}

// Filter returns every recorded entry matching sessionID, operation, and
// result, in recording order. Any of the three left as the zero value
// matches every entry for that field. sessionID is matched against its
// masked 12-character prefix, the same comparison ForSession uses.
func (a *AuditLog) Filter(sessionID string, operation Operation, result Result) []AuditEntry {
	var maskedSession string
	if sessionID != "" {
		maskedSession = MaskSessionID(sessionID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	var out []AuditEntry
	for _, e := range a.entries {
		if maskedSession != "" && e.MaskedSession != maskedSession {
			continue
		}
		if operation != "" && e.Operation != operation {
			continue
		}
		if result != "" && e.Result != result {
			continue
		}
		out = append(out, e)
	}
	return out
}
