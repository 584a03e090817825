package resolver

import (
	"testing"

	"confidential-gateway/internal/types"
	"confidential-gateway/internal/vault"
)

func newTestVault() *vault.Vault {
	return vault.New(vault.Options{
		Backend:            vault.NewMemoryBackend(),
		Secret:             "test-secret-value",
		Encryption:         true,
		TokenExpiryMinutes: 60,
	})
}

func storeSample(t *testing.T, v *vault.Vault, sessionID, value string) string {
	t.Helper()
	token, _, err := v.Store(vault.RoleOwner, sessionID, types.ScanResult{
		Value:      value,
		Type:       "EMAIL",
		Family:     types.FamilyPII,
		AlertLevel: types.AlertMedium,
	})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestResolve_ReplacesKnownToken(t *testing.T) {
	v := newTestVault()
	token := storeSample(t, v, "sess_abc123", "jane.doe@example.com")
	r := New(v, true, true, nil)

	got, err := r.Resolve("sess_abc123", "email me at "+token+" thanks")
	if err != nil {
		t.Fatal(err)
	}
	want := "email me at jane.doe@example.com thanks"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolve_NoTokens_ReturnsUnchanged(t *testing.T) {
	v := newTestVault()
	r := New(v, true, true, nil)
	got, err := r.Resolve("sess_abc123", "nothing to resolve here")
	if err != nil {
		t.Fatal(err)
	}
	if got != "nothing to resolve here" {
		t.Errorf("got %q", got)
	}
}

func TestResolve_StrictSession_ErrorsOnWrongSession(t *testing.T) {
	v := newTestVault()
	token := storeSample(t, v, "sess_abc123", "jane.doe@example.com")
	r := New(v, true, true, nil)

	if _, err := r.Resolve("sess_other999", "see "+token); err == nil {
		t.Fatal("expected a ResolverError for a cross-session token")
	}
}

func TestResolve_DefaultConfig_LeavesNotFoundTokenInPlace(t *testing.T) {
	v := newTestVault()
	r := New(v, true, true, nil)

	unknown := "⟨TKN_EMAIL_DEADBEEF⟩"
	got, err := r.Resolve("sess_abc123", "see "+unknown)
	if err != nil {
		t.Fatalf("expected a not-found token to be left unresolved under default config, got error: %v", err)
	}
	if got != "see "+unknown {
		t.Errorf("got %q, want not-found token left in place", got)
	}
}

func TestResolve_LenientSession_LeavesTokenInPlace(t *testing.T) {
	v := newTestVault()
	token := storeSample(t, v, "sess_abc123", "jane.doe@example.com")
	r := New(v, false, true, nil)

	got, err := r.Resolve("sess_other999", "see "+token)
	if err != nil {
		t.Fatal(err)
	}
	if got != "see "+token {
		t.Errorf("got %q, want token left in place", got)
	}
}

func TestResolve_LenientSession_DropsTokenWhenConfigured(t *testing.T) {
	v := newTestVault()
	token := storeSample(t, v, "sess_abc123", "jane.doe@example.com")
	r := New(v, false, false, nil)

	got, err := r.Resolve("sess_other999", "see "+token+" here")
	if err != nil {
		t.Fatal(err)
	}
	if got != "see  here" {
		t.Errorf("got %q, want token removed", got)
	}
}

func TestResolve_RepeatedToken_ReplacesAllOccurrences(t *testing.T) {
	v := newTestVault()
	token := storeSample(t, v, "sess_abc123", "jane.doe@example.com")
	r := New(v, true, true, nil)

	got, err := r.Resolve("sess_abc123", token+" and again "+token)
	if err != nil {
		t.Fatal(err)
	}
	want := "jane.doe@example.com and again jane.doe@example.com"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
