package vault

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestBboltBackend(t *testing.T) *BboltBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	b, err := NewBboltBackend(path)
	if err != nil {
		t.Fatalf("NewBboltBackend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBboltBackend_PutGet_RoundTrips(t *testing.T) {
	b := newTestBboltBackend(t)
	entry := Entry{
		Token:     "⟨TKN_EMAIL_DEADBEEF⟩",
		SessionID: "sess_abc123",
		Sealed:    []byte("sealed-bytes"),
		DataType:  "EMAIL",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := b.Put(entry); err != nil {
		t.Fatal(err)
	}

	got, ok, err := b.Get(entry.Token)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected entry to be found")
	}
	if string(got.Sealed) != "sealed-bytes" {
		t.Errorf("got %q, want sealed-bytes", got.Sealed)
	}
}

func TestBboltBackend_Get_MissingReturnsNotFound(t *testing.T) {
	b := newTestBboltBackend(t)
	_, ok, err := b.Get("⟨TKN_EMAIL_00000000⟩")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected missing token to report not found")
	}
}

func TestBboltBackend_DeleteSession_RemovesAllEntries(t *testing.T) {
	b := newTestBboltBackend(t)
	for _, tok := range []string{"⟨TKN_A_11111111⟩", "⟨TKN_B_22222222⟩"} {
		if err := b.Put(Entry{Token: tok, SessionID: "sess_abc123"}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := b.DeleteSession("sess_abc123")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if _, ok, _ := b.Get("⟨TKN_A_11111111⟩"); ok {
		t.Error("expected entry to be gone after DeleteSession")
	}
}

func TestBboltBackend_RevokeSession_MarksWithoutDeleting(t *testing.T) {
	b := newTestBboltBackend(t)
	tok := "⟨TKN_A_11111111⟩"
	if err := b.Put(Entry{Token: tok, SessionID: "sess_abc123"}); err != nil {
		t.Fatal(err)
	}
	n, err := b.RevokeSession("sess_abc123")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 revoked, got %d", n)
	}
	got, ok, err := b.Get(tok)
	if err != nil || !ok {
		t.Fatalf("expected entry to still exist, ok=%v err=%v", ok, err)
	}
	if !got.Revoked {
		t.Error("expected entry to be marked revoked")
	}
}
