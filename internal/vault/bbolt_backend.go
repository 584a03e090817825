package vault

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// bboltBucket is the single bucket all vault entries live in, keyed by
// token. A secondary sessionIndexBucket keeps, for each session id, the
// set of token keys belonging to it, so DeleteSession/RevokeSession
// don't require a full bucket scan.
const (
	bboltEntriesBucket = "vault_entries"
	bboltSessionBucket = "vault_sessions"
)

// BboltBackend is a Backend implementation persisted to an embedded
// bbolt database, for deployments that need vault entries to survive a
// gateway restart (e.g. a long-lived chat session spanning process
// redeploys). Sealed values are already encrypted by the caller before
// reaching this layer; bbolt adds no encryption of its own.
type BboltBackend struct {
	db *bolt.DB
}

// NewBboltBackend opens (or creates) the bbolt database at path and
// ensures both buckets exist.
func NewBboltBackend(path string) (*BboltBackend, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("vault: open bbolt backend %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bboltEntriesBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(bboltSessionBucket))
		return err
	}); err != nil {
		db.Close() //nolint:errcheck // best-effort close on init failure
		return nil, fmt.Errorf("vault: create bbolt buckets: %w", err)
	}
	return &BboltBackend{db: db}, nil
}

// Put stores e, indexing it under its session id.
func (b *BboltBackend) Put(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("vault: marshal entry: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket([]byte(bboltEntriesBucket))
		if err := entries.Put([]byte(e.Token), data); err != nil {
			return err
		}
		sessions := tx.Bucket([]byte(bboltSessionBucket))
		sessionKey := []byte(e.SessionID)
		tokens := decodeTokenSet(sessions.Get(sessionKey))
		tokens[e.Token] = struct{}{}
		return sessions.Put(sessionKey, encodeTokenSet(tokens))
	})
}

// Get returns the entry for token.
func (b *BboltBackend) Get(token string) (Entry, bool, error) {
	var e Entry
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bboltEntriesBucket)).Get([]byte(token))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("vault: unmarshal entry: %w", err)
		}
		found = true
		return nil
	})
	return e, found, err
}

// DeleteSession removes every entry for sessionID.
func (b *BboltBackend) DeleteSession(sessionID string) (int, error) {
	n := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket([]byte(bboltEntriesBucket))
		sessions := tx.Bucket([]byte(bboltSessionBucket))
		sessionKey := []byte(sessionID)
		tokens := decodeTokenSet(sessions.Get(sessionKey))
		for token := range tokens {
			if err := entries.Delete([]byte(token)); err != nil {
				return err
			}
			n++
		}
		return sessions.Delete(sessionKey)
	})
	return n, err
}

// RevokeSession marks every entry for sessionID as revoked.
func (b *BboltBackend) RevokeSession(sessionID string) (int, error) {
	n := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket([]byte(bboltEntriesBucket))
		sessions := tx.Bucket([]byte(bboltSessionBucket))
		tokens := decodeTokenSet(sessions.Get([]byte(sessionID)))
		for token := range tokens {
			raw := entries.Get([]byte(token))
			if raw == nil {
				continue
			}
			var e Entry
			if err := json.Unmarshal(raw, &e); err != nil {
				return fmt.Errorf("vault: unmarshal entry: %w", err)
			}
			if e.Revoked {
				continue
			}
			e.Revoked = true
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("vault: marshal entry: %w", err)
			}
			if err := entries.Put([]byte(token), data); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// Close closes the underlying bbolt database.
func (b *BboltBackend) Close() error {
	return b.db.Close()
}

func decodeTokenSet(raw []byte) map[string]struct{} {
	out := map[string]struct{}{}
	if raw == nil {
		return out
	}
	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return out
	}
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}

func encodeTokenSet(set map[string]struct{}) []byte {
	tokens := make([]string, 0, len(set))
	for t := range set {
		tokens = append(tokens, t)
	}
	data, _ := json.Marshal(tokens) // string slice marshal never fails
	return data
}
