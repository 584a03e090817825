package config

import "confidential-gateway/internal/gwerrors"

// Presets are named starting points for common deployment profiles. The
// upstream framework this gateway is modeled on documents preset names
// (banking, medical, developer, legal) but ships no preset definitions in
// the portion of its source retrieved for this build; the family/sensitivity
// choices below are authored against the documented intent of each name,
// not transcribed from an existing file. Treat them as reasonable starting
// points, not as canon — operators should still review backend and
// token-expiry choices before production use.
var presets = map[string]func() *Config{
	"banking": func() *Config {
		c := Defaults()
		c.Scanner.Families = []string{"FINANCIAL", "SECRETS", "PII"}
		c.Scanner.Sensitivity = "high"
		c.Vault.TokenExpiryMinutes = 30
		c.Vault.Alerts.CriticalFamilies = []string{"FINANCIAL", "SECRETS"}
		c.Vault.Alerts.OnCritical = "block"
		return c
	},
	"medical": func() *Config {
		c := Defaults()
		c.Scanner.Families = []string{"PII", "SECRETS"}
		c.Scanner.Sensitivity = "high"
		c.Scanner.SafeFields = []string{"diagnosis_code", "visit_reason"}
		c.Vault.TokenExpiryMinutes = 120
		c.Vault.Alerts.CriticalFamilies = []string{"PII"}
		c.Vault.Alerts.OnCritical = "notify"
		return c
	},
	"developer": func() *Config {
		c := Defaults()
		c.Scanner.Families = []string{"SECRETS", "INFRA"}
		c.Scanner.Sensitivity = "medium"
		c.Vault.Backend = "bbolt"
		c.Vault.TokenExpiryMinutes = 60
		c.Vault.Alerts.CriticalFamilies = []string{"SECRETS"}
		c.Vault.Alerts.OnCritical = "log"
		return c
	},
	"legal": func() *Config {
		c := Defaults()
		c.Scanner.Families = []string{"PII", "BUSINESS"}
		c.Scanner.Sensitivity = "medium"
		c.Vault.TokenExpiryMinutes = 240
		c.Vault.Alerts.CriticalFamilies = []string{"PII"}
		c.Vault.Alerts.OnCritical = "notify"
		return c
	},
}

// LoadPreset returns the named preset's config, layered with env vars and
// validated the same way Load is. Returns a *gwerrors.ConfigError citing
// the valid preset names when name is unrecognized.
func LoadPreset(name string) (*Config, error) {
	build, ok := presets[name]
	if !ok {
		return nil, gwerrors.NewConfigError(
			"unknown config preset",
			map[string]any{"got": name, "valid": presetNames()},
		)
	}
	cfg := build()
	loadEnv(cfg)
	resolveVaultSecret(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func presetNames() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
