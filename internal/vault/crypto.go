package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 32 // AES-256
)

// deriveSessionKey derives a per-session AES-256 key via PBKDF2-HMAC-
// SHA256, using the session id as salt and the framework's shared vault
// secret as password. Re-deriving with the same (secret, sessionID) pair
// always yields the same key; no key material is ever stored at rest.
func deriveSessionKey(secret, sessionID string) []byte {
	return pbkdf2.Key([]byte(secret), []byte(sessionID), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
}

// Encrypt seals plaintext under the key derived for (secret, sessionID),
// returning nonce||ciphertext||tag.
func Encrypt(secret, sessionID, plaintext string) ([]byte, error) {
	key := deriveSessionKey(secret, sessionID)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: build GCM: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("vault: generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt reverses Encrypt, failing (authentication error) if sealed was
// not produced under the same (secret, sessionID) pair or has been
// tampered with.
func Decrypt(secret, sessionID string, sealed []byte) (string, error) {
	key := deriveSessionKey(secret, sessionID)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("vault: build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("vault: build GCM: %w", err)
	}
	ns := gcm.NonceSize()
	if len(sealed) < ns {
		return "", fmt.Errorf("vault: sealed value too short")
	}
	nonce, ciphertext := sealed[:ns], sealed[ns:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("vault: decrypt: %w", err)
	}
	return string(plaintext), nil
}
