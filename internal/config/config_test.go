package config

import (
	"encoding/json"
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if len(cfg.Scanner.Families) != 5 {
		t.Errorf("Families: got %d, want 5", len(cfg.Scanner.Families))
	}
	if cfg.Scanner.Sensitivity != "medium" {
		t.Errorf("Sensitivity: got %s, want medium", cfg.Scanner.Sensitivity)
	}
	if !cfg.Scanner.Entropy.Enabled {
		t.Error("Entropy.Enabled should default to true")
	}
	if cfg.Scanner.Entropy.Threshold != 3.5 {
		t.Errorf("Entropy.Threshold: got %f, want 3.5", cfg.Scanner.Entropy.Threshold)
	}
	if cfg.Vault.Backend != "memory" {
		t.Errorf("Vault.Backend: got %s, want memory", cfg.Vault.Backend)
	}
	if cfg.Vault.TokenExpiryMinutes != 60 {
		t.Errorf("Vault.TokenExpiryMinutes: got %d, want 60", cfg.Vault.TokenExpiryMinutes)
	}
	if !cfg.Vault.Encryption {
		t.Error("Vault.Encryption should default to true")
	}
	if !cfg.Resolver.StrictSession {
		t.Error("Resolver.StrictSession should default to true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %s", cfg.LogLevel)
	}
	if cfg.ManagementPort != 8081 {
		t.Errorf("ManagementPort: got %d, want 8081", cfg.ManagementPort)
	}
}

func TestLoadEnv_Sensitivity(t *testing.T) {
	t.Setenv("GATEWAY_SENSITIVITY", "paranoid")
	cfg := Defaults()
	loadEnv(cfg)
	if cfg.Scanner.Sensitivity != "paranoid" {
		t.Errorf("Sensitivity: got %s, want paranoid", cfg.Scanner.Sensitivity)
	}
}

func TestLoadEnv_VaultBackend(t *testing.T) {
	t.Setenv("GATEWAY_VAULT_BACKEND", "bbolt")
	cfg := Defaults()
	loadEnv(cfg)
	if cfg.Vault.Backend != "bbolt" {
		t.Errorf("Vault.Backend: got %s, want bbolt", cfg.Vault.Backend)
	}
}

func TestLoadEnv_TokenExpiryMinutes(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN_EXPIRY_MINUTES", "15")
	cfg := Defaults()
	loadEnv(cfg)
	if cfg.Vault.TokenExpiryMinutes != 15 {
		t.Errorf("TokenExpiryMinutes: got %d, want 15", cfg.Vault.TokenExpiryMinutes)
	}
}

func TestLoadEnv_LogLevel(t *testing.T) {
	t.Setenv("GATEWAY_LOG_LEVEL", "debug")
	cfg := Defaults()
	loadEnv(cfg)
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %s", cfg.LogLevel)
	}
}

func TestLoadEnv_ManagementPort(t *testing.T) {
	t.Setenv("GATEWAY_MANAGEMENT_PORT", "9091")
	cfg := Defaults()
	loadEnv(cfg)
	if cfg.ManagementPort != 9091 {
		t.Errorf("ManagementPort: got %d, want 9091", cfg.ManagementPort)
	}
}

func TestLoadEnv_ManagementToken(t *testing.T) {
	t.Setenv("GATEWAY_MANAGEMENT_TOKEN", "secret-token")
	cfg := Defaults()
	loadEnv(cfg)
	if cfg.ManagementToken != "secret-token" {
		t.Errorf("ManagementToken: got %s", cfg.ManagementToken)
	}
}

func TestLoadEnv_StrictSession_Disabled(t *testing.T) {
	t.Setenv("GATEWAY_STRICT_SESSION", "false")
	cfg := Defaults()
	loadEnv(cfg)
	if cfg.Resolver.StrictSession {
		t.Error("StrictSession should be false")
	}
}

func TestLoadEnv_InvalidPort_Ignored(t *testing.T) {
	t.Setenv("GATEWAY_MANAGEMENT_PORT", "not-a-number")
	cfg := Defaults()
	loadEnv(cfg)
	if cfg.ManagementPort != 8081 {
		t.Errorf("ManagementPort: got %d, want 8081 (invalid env should be ignored)", cfg.ManagementPort)
	}
}

func TestLoadFile_ValidJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatal(err)
	}

	data, marshalErr := json.Marshal(map[string]any{
		"scanner": map[string]any{
			"sensitivity": "high",
		},
		"vault": map[string]any{
			"backend": "bbolt",
		},
	})
	if marshalErr != nil {
		t.Fatal(marshalErr)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	loadFile(cfg, f.Name())

	if cfg.Scanner.Sensitivity != "high" {
		t.Errorf("Sensitivity: got %s, want high", cfg.Scanner.Sensitivity)
	}
	if cfg.Vault.Backend != "bbolt" {
		t.Errorf("Vault.Backend: got %s, want bbolt", cfg.Vault.Backend)
	}
}

func TestLoadFile_Missing_IsNoOp(t *testing.T) {
	cfg := Defaults()
	loadFile(cfg, "/nonexistent/path/config.json")
	if cfg.Scanner.Sensitivity != "medium" {
		t.Errorf("Sensitivity changed unexpectedly: %s", cfg.Scanner.Sensitivity)
	}
}

func TestLoadFile_InvalidJSON_PreservesDefaults(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-bad-*.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{this is not json}"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	loadFile(cfg, f.Name())
	if cfg.Scanner.Sensitivity != "medium" {
		t.Errorf("Sensitivity changed on bad JSON: %s", cfg.Scanner.Sensitivity)
	}
}

func TestResolveVaultSecret_FromEnv(t *testing.T) {
	t.Setenv(EnvVaultSecret, "a-real-secret")
	cfg := Defaults()
	resolveVaultSecret(cfg)
	if cfg.VaultSecret != "a-real-secret" {
		t.Errorf("VaultSecret: got %s", cfg.VaultSecret)
	}
	if cfg.UsingDefaultSecret {
		t.Error("UsingDefaultSecret should be false when env var is set")
	}
}

func TestResolveVaultSecret_FallsBackToDefault(t *testing.T) {
	t.Setenv(EnvVaultSecret, "")
	cfg := Defaults()
	resolveVaultSecret(cfg)
	if !cfg.UsingDefaultSecret {
		t.Error("UsingDefaultSecret should be true when env var is unset")
	}
	if cfg.VaultSecret == "" {
		t.Error("VaultSecret should never be empty")
	}
}

func TestValidate_UnknownFamily_Rejected(t *testing.T) {
	cfg := Defaults()
	cfg.Scanner.Families = []string{"NOT_A_FAMILY"}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected ConfigError for unknown family")
	}
}

func TestValidate_BadSensitivity_Rejected(t *testing.T) {
	cfg := Defaults()
	cfg.Scanner.Sensitivity = "extreme"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected ConfigError for invalid sensitivity")
	}
}

func TestValidate_NonPositiveEntropyThreshold_Rejected(t *testing.T) {
	cfg := Defaults()
	cfg.Scanner.Entropy.Threshold = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected ConfigError for non-positive entropy threshold")
	}
}

func TestValidate_BadBackend_Rejected(t *testing.T) {
	cfg := Defaults()
	cfg.Vault.Backend = "sqlite"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected ConfigError for invalid backend")
	}
}

func TestValidate_NegativeTokenExpiry_Rejected(t *testing.T) {
	cfg := Defaults()
	cfg.Vault.TokenExpiryMinutes = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected ConfigError for negative token expiry")
	}
}

func TestValidate_BadOnCritical_Rejected(t *testing.T) {
	cfg := Defaults()
	cfg.Vault.Alerts.OnCritical = "page"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected ConfigError for invalid onCritical")
	}
}

func TestValidate_DefaultsPass(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Errorf("defaults should validate cleanly: %v", err)
	}
}

func TestLoad_ReturnsNonNil(t *testing.T) {
	t.Setenv(EnvVaultSecret, "test-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.ManagementPort <= 0 {
		t.Errorf("ManagementPort should be positive, got %d", cfg.ManagementPort)
	}
}

func TestLoadPreset_Banking(t *testing.T) {
	t.Setenv(EnvVaultSecret, "test-secret")
	cfg, err := LoadPreset("banking")
	if err != nil {
		t.Fatalf("LoadPreset(banking) error: %v", err)
	}
	if cfg.Scanner.Sensitivity != "high" {
		t.Errorf("banking preset sensitivity: got %s, want high", cfg.Scanner.Sensitivity)
	}
}

func TestLoadPreset_Unknown_Rejected(t *testing.T) {
	if _, err := LoadPreset("not-a-preset"); err == nil {
		t.Fatal("expected ConfigError for unknown preset")
	}
}
