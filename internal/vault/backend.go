package vault

import "time"

// Entry is one stored (token -> original value) mapping, sealed at rest.
type Entry struct {
	Token       string
	SessionID   string
	Sealed      []byte // AES-256-GCM(nonce||ciphertext||tag) of the original value, or plaintext bytes if encryption is disabled
	Encrypted   bool
	DataType    string
	Family      string
	AlertLevel  string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Revoked     bool
}

// Backend is the pluggable vault storage interface. A concrete backend
// need only guarantee that Put/Get/Delete are safe under concurrent use
// from multiple goroutines; access-control and expiry decisions live
// above this layer in Vault.
type Backend interface {
	// Put stores e, overwriting any existing entry for the same token.
	Put(e Entry) error
	// Get returns the entry for token, or ok=false if it does not exist.
	Get(token string) (Entry, bool, error)
	// DeleteSession removes every entry belonging to sessionID and
	// returns how many were removed.
	DeleteSession(sessionID string) (int, error)
	// RevokeSession marks every entry belonging to sessionID as revoked,
	// without deleting them (so subsequent lookups can still explain
	// that the data existed but access was revoked). Returns how many
	// entries were affected.
	RevokeSession(sessionID string) (int, error)
	// Close releases any resources the backend holds open.
	Close() error
}
