// Package config loads and validates gateway configuration.
// Settings are layered: built-in defaults → gateway-config.json →
// environment variables (env vars win). A named preset can also be
// requested in place of a raw config, the way the original framework's
// PrivacyConfig accepted "banking" / "medical" / "developer" / "legal".
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"confidential-gateway/internal/gwerrors"
	"confidential-gateway/internal/types"
)

// EnvVaultSecret is the environment variable supplying the key-derivation
// password for the vault's per-session AES-256-GCM keys.
const EnvVaultSecret = "FRAMEWORK_VAULT_SECRET"

// insecureDefaultSecret is used only when FRAMEWORK_VAULT_SECRET is unset.
// It is NOT suitable for production; Load logs a warning when it is used.
const insecureDefaultSecret = "insecure-development-only-framework-secret"

// Config holds the full, validated gateway configuration.
type Config struct {
	Scanner  ScannerConfig  `json:"scanner"`
	Vault    VaultConfig    `json:"vault"`
	Resolver ResolverConfig `json:"resolver"`

	// Ambient / process-level settings, not part of the spec.md schema
	// but required to run the gateway as a service.
	LogLevel        string `json:"logLevel"`
	ManagementPort  int    `json:"managementPort"`
	ManagementToken string `json:"managementToken"`

	// VaultSecret is resolved from FRAMEWORK_VAULT_SECRET at Load time;
	// it is not read from the JSON config file.
	VaultSecret string `json:"-"`
	// UsingDefaultSecret is true when VaultSecret came from the insecure
	// built-in default rather than the environment.
	UsingDefaultSecret bool `json:"-"`
}

// ScannerConfig configures the universal scanner and its five strategies.
type ScannerConfig struct {
	Families        []string      `json:"families"`
	Sensitivity     string        `json:"sensitivity"`
	SafeFields      []string      `json:"safeFields"`
	Entropy         EntropyConfig `json:"entropy"`
	NLP             NLPConfig     `json:"nlp"`
	CustomDetectors []string      `json:"customDetectors"`
}

// EntropyConfig configures the entropy engine.
type EntropyConfig struct {
	Enabled             bool    `json:"enabled"`
	Threshold           float64 `json:"threshold"`
	MinLength           int     `json:"minLength"`
	MaxLength           int     `json:"maxLength"`
	RequireContextWord  bool    `json:"requireContextWord"`
}

// NLPConfig configures the optional NLP/NER engine.
type NLPConfig struct {
	Enabled       bool    `json:"enabled"`
	Model         string  `json:"model"`
	MinConfidence float64 `json:"minConfidence"`
	ContextBoost  float64 `json:"contextBoost"`
}

// VaultConfig configures the vault backend, encryption, and alerting.
type VaultConfig struct {
	Backend             string         `json:"backend"`
	BackendConfig       map[string]any `json:"backendConfig"`
	TokenExpiryMinutes  int            `json:"tokenExpiryMinutes"`
	Encryption          bool           `json:"encryption"`
	Alerts              AlertsConfig   `json:"alerts"`
}

// AlertsConfig configures the alert engine.
type AlertsConfig struct {
	Enabled            bool     `json:"enabled"`
	CriticalFamilies   []string `json:"criticalFamilies"`
	OnCritical         string   `json:"onCritical"`
	RecommendRotation  bool     `json:"recommendRotation"`
}

// ResolverConfig configures the token resolver.
type ResolverConfig struct {
	StrictSession         bool `json:"strictSession"`
	LeaveUnresolvedTokens bool `json:"leaveUnresolvedTokens"`
}

// validFamilies, validSensitivities, validBackends, and validOnCritical
// are the enum-like value sets the validator accepts. "redis" and
// "encryptedDb" are accepted here for config compatibility with the
// original presets even though only "memory" and "bbolt" have a
// registered implementation in this module (see vault.NewBackend).
var (
	validSensitivities = map[string]bool{"low": true, "medium": true, "high": true, "paranoid": true}
	validBackends      = map[string]bool{"memory": true, "bounded_memory": true, "bbolt": true, "redis": true, "encryptedDb": true}
	validOnCritical    = map[string]bool{"log": true, "notify": true, "block": true}
)

// Load returns config with defaults overridden by gateway-config.json and
// environment variables, then validates the result.
func Load() (*Config, error) {
	cfg := Defaults()
	loadFile(cfg, "gateway-config.json")
	loadEnv(cfg)
	resolveVaultSecret(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the built-in default configuration (spec.md §6).
func Defaults() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Families:    []string{"PII", "SECRETS", "FINANCIAL", "INFRA", "BUSINESS"},
			Sensitivity: "medium",
			SafeFields:  []string{},
			Entropy: EntropyConfig{
				Enabled:            true,
				Threshold:          3.5,
				MinLength:          16,
				MaxLength:          512,
				RequireContextWord: true,
			},
			NLP: NLPConfig{
				Enabled:       true,
				Model:         "en_core_web_sm",
				MinConfidence: 0.60,
				ContextBoost:  0.15,
			},
			CustomDetectors: []string{},
		},
		Vault: VaultConfig{
			Backend:            "memory",
			BackendConfig:      map[string]any{},
			TokenExpiryMinutes: 60,
			Encryption:         true,
			Alerts: AlertsConfig{
				Enabled:           true,
				CriticalFamilies:  []string{"SECRETS", "FINANCIAL"},
				OnCritical:        "log",
				RecommendRotation: true,
			},
		},
		Resolver: ResolverConfig{
			StrictSession:         true,
			LeaveUnresolvedTokens: true,
		},
		LogLevel:       "info",
		ManagementPort: 8081,
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // G703: path is a controlled config file path, not user input
	if err != nil {
		return // file is optional
	}
	_ = json.Unmarshal(data, cfg) // malformed file → keep defaults, validated later
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("GATEWAY_SENSITIVITY"); v != "" {
		cfg.Scanner.Sensitivity = v
	}
	if v := os.Getenv("GATEWAY_VAULT_BACKEND"); v != "" {
		cfg.Vault.Backend = v
	}
	if v := os.Getenv("GATEWAY_TOKEN_EXPIRY_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vault.TokenExpiryMinutes = n
		}
	}
	if v := os.Getenv("GATEWAY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GATEWAY_MANAGEMENT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ManagementPort = n
		}
	}
	if v := os.Getenv("GATEWAY_MANAGEMENT_TOKEN"); v != "" {
		cfg.ManagementToken = v
	}
	if v := os.Getenv("GATEWAY_STRICT_SESSION"); v == "false" {
		cfg.Resolver.StrictSession = false
	}
}

func resolveVaultSecret(cfg *Config) {
	if v := os.Getenv(EnvVaultSecret); v != "" {
		cfg.VaultSecret = v
		return
	}
	cfg.VaultSecret = insecureDefaultSecret
	cfg.UsingDefaultSecret = true
}

// Validate checks a config for schema violations, returning a
// *gwerrors.ConfigError citing valid alternatives on failure.
func Validate(cfg *Config) error {
	for _, f := range cfg.Scanner.Families {
		if !types.ValidFamily(f) {
			return gwerrors.NewConfigError(
				"unknown family in scanner.families",
				map[string]any{"got": f, "valid": familyNames()},
			)
		}
	}

	if cfg.Scanner.Sensitivity != "" && !validSensitivities[cfg.Scanner.Sensitivity] {
		return gwerrors.NewConfigError(
			"invalid scanner.sensitivity",
			map[string]any{"got": cfg.Scanner.Sensitivity, "valid": sortedKeys(validSensitivities)},
		)
	}

	if cfg.Scanner.Entropy.Threshold <= 0 {
		return gwerrors.NewConfigError(
			"scanner.entropy.threshold must be a positive number",
			map[string]any{"got": cfg.Scanner.Entropy.Threshold},
		)
	}

	if cfg.Vault.Backend != "" && !validBackends[cfg.Vault.Backend] {
		return gwerrors.NewConfigError(
			"invalid vault.backend",
			map[string]any{"got": cfg.Vault.Backend, "valid": sortedKeys(validBackends)},
		)
	}

	if cfg.Vault.TokenExpiryMinutes < 0 {
		return gwerrors.NewConfigError(
			"vault.tokenExpiryMinutes must be a non-negative int",
			map[string]any{"got": cfg.Vault.TokenExpiryMinutes},
		)
	}

	if cfg.Vault.Alerts.OnCritical != "" && !validOnCritical[cfg.Vault.Alerts.OnCritical] {
		return gwerrors.NewConfigError(
			"invalid vault.alerts.onCritical",
			map[string]any{"got": cfg.Vault.Alerts.OnCritical, "valid": sortedKeys(validOnCritical)},
		)
	}

	for _, f := range cfg.Vault.Alerts.CriticalFamilies {
		if !types.ValidFamily(f) {
			return gwerrors.NewConfigError(
				"unknown family in vault.alerts.criticalFamilies",
				map[string]any{"got": f, "valid": familyNames()},
			)
		}
	}

	return nil
}

func familyNames() []string {
	out := make([]string, len(types.AllFamilies))
	for i, f := range types.AllFamilies {
		out[i] = string(f)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Small fixed sets; insertion-sort is plenty and avoids importing sort
	// for three call sites.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// CriticalFamiliesSet returns the configured critical families as a set.
func (c *Config) CriticalFamiliesSet() map[types.DataFamily]bool {
	out := make(map[types.DataFamily]bool, len(c.Vault.Alerts.CriticalFamilies))
	for _, f := range c.Vault.Alerts.CriticalFamilies {
		out[types.DataFamily(strings.ToUpper(f))] = true
	}
	return out
}
