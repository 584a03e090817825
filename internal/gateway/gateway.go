// Package gateway is the confidential-data gateway's public facade: it
// exposes protect/restore/audit/revoke_session/purge_session, composing
// the scanner, vault, and resolver packages into the single entry point
// a caller embeds ahead of a model call.
package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"confidential-gateway/internal/config"
	"confidential-gateway/internal/gwerrors"
	"confidential-gateway/internal/logger"
	"confidential-gateway/internal/metrics"
	"confidential-gateway/internal/resolver"
	"confidential-gateway/internal/scanner"
	"confidential-gateway/internal/types"
	"confidential-gateway/internal/vault"
)

// Name and Version identify this gateway build; exposed through
// Manifest() for introspection by the management API and by any
// framework that enumerates its pipeline stages.
const (
	Name    = "confidential-gateway"
	Version = "1.0.0"
)

// ProtectResult is the outcome of one Protect call.
type ProtectResult struct {
	SessionID    string
	Text         string           // set when the input was a string
	Fields       map[string]any   // set when the input was a map
	Findings     []types.ScanResult
	TokensIssued int
	Alerts       []vault.Alert
	AuditSummary AuditSummary
}

// AuditSummary is a point-in-time tally of one Protect call's findings:
// how many, broken down by family and by concrete type, alongside the
// session they were vaulted under and when the call completed.
type AuditSummary struct {
	Total     int
	Families  map[types.DataFamily]int
	Types     map[string]int
	SessionID string
	Timestamp time.Time
}

// summarize builds the audit_summary for one Protect call's findings.
func summarize(sessionID string, results []types.ScanResult) AuditSummary {
	families := make(map[types.DataFamily]int, len(results))
	kinds := make(map[string]int, len(results))
	for _, r := range results {
		families[r.Family]++
		kinds[r.Type]++
	}
	return AuditSummary{
		Total:     len(results),
		Families:  families,
		Types:     kinds,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

// Gateway is the confidential-data gateway's public facade.
type Gateway struct {
	cfg      *config.Config
	scanner  scanner.Scanner
	vault    *vault.Vault
	resolver *resolver.Resolver
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// New builds a Gateway from cfg. onAlert, if non-nil, is invoked
// synchronously whenever a stored item fires an alert.
func New(cfg *config.Config, onAlert func(vault.Alert)) (*Gateway, error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	alerts := vault.NewAlertEngine(
		cfg.Vault.Alerts.Enabled,
		cfg.CriticalFamiliesSet(),
		cfg.Vault.Alerts.RecommendRotation,
		cfg.Vault.Alerts.OnCritical,
		onAlert,
	)

	v := vault.New(vault.Options{
		Backend:            backend,
		Secret:             cfg.VaultSecret,
		Encryption:         cfg.Vault.Encryption,
		TokenExpiryMinutes: cfg.Vault.TokenExpiryMinutes,
		Alerts:             alerts,
	})

	m := metrics.New()

	sc := scanner.NewUniversalScanner(scanner.Config{
		Families:            cfg.Scanner.Families,
		Sensitivity:         cfg.Scanner.Sensitivity,
		SafeFields:          cfg.Scanner.SafeFields,
		EntropyEnabled:      cfg.Scanner.Entropy.Enabled,
		EntropyThreshold:    cfg.Scanner.Entropy.Threshold,
		EntropyMinLength:    cfg.Scanner.Entropy.MinLength,
		EntropyMaxLength:    cfg.Scanner.Entropy.MaxLength,
		EntropyNeedsCtxWord: cfg.Scanner.Entropy.RequireContextWord,
		NLPEnabled:          cfg.Scanner.NLP.Enabled,
		NLPDetector:         nil,
		NLPMinConfidence:    cfg.Scanner.NLP.MinConfidence,
		NLPContextBoost:     cfg.Scanner.NLP.ContextBoost,
	})

	res := resolver.New(v, cfg.Resolver.StrictSession, cfg.Resolver.LeaveUnresolvedTokens, m)

	return &Gateway{
		cfg:      cfg,
		scanner:  sc,
		vault:    v,
		resolver: res,
		metrics:  m,
		log:      logger.New("GATEWAY", cfg.LogLevel),
	}, nil
}

func newBackend(cfg *config.Config) (vault.Backend, error) {
	switch cfg.Vault.Backend {
	case "memory", "":
		return vault.NewMemoryBackend(), nil
	case "bounded_memory":
		capacity := 10000
		if n, ok := cfg.Vault.BackendConfig["capacity"].(float64); ok && n > 0 {
			capacity = int(n)
		}
		return vault.NewBoundedMemoryBackend(capacity), nil
	case "bbolt":
		path, _ := cfg.Vault.BackendConfig["path"].(string)
		if path == "" {
			path = "vault.db"
		}
		return vault.NewBboltBackend(path)
	default:
		return nil, gwerrors.NewConfigError(
			"vault backend has no registered implementation",
			map[string]any{"backend": cfg.Vault.Backend, "implemented": []string{"memory", "bounded_memory", "bbolt"}},
		)
	}
}

// Metrics exposes the gateway's runtime counters for the management API.
func (g *Gateway) Metrics() *metrics.Metrics { return g.metrics }

// AuditLog exposes the vault's audit trail for the management API.
func (g *Gateway) AuditLog() *vault.AuditLog { return g.vault.AuditLog() }

// Manifest describes this gateway build.
func (g *Gateway) Manifest() map[string]string {
	return map[string]string{"name": Name, "version": Version}
}

// Protect scans input, vaults every detected confidential value under a
// session, and returns the input with each value replaced by its token.
// sessionID may be empty, in which case a fresh session id is minted.
// input must be a string or a map[string]any; any other type is
// returned as an error.
func (g *Gateway) Protect(sessionID string, input any) (ProtectResult, error) {
	g.metrics.ProtectCalls.Add(1)

	if sessionID == "" {
		var err error
		sessionID, err = newSessionID()
		if err != nil {
			return ProtectResult{}, gwerrors.NewScannerError("failed to mint session id", map[string]any{"error": err.Error()})
		}
	}

	switch v := input.(type) {
	case string:
		return g.protectText(sessionID, v)
	case map[string]any:
		return g.protectFields(sessionID, v)
	default:
		return ProtectResult{}, gwerrors.NewScannerError(
			"unsupported input type for protect",
			map[string]any{"type": fmt.Sprintf("%T", input)},
		)
	}
}

func (g *Gateway) protectText(sessionID, text string) (ProtectResult, error) {
	results := g.scanner.Scan(text)
	g.metrics.ScanResultsTotal.Add(int64(len(results)))

	valueToToken, alerts, err := g.vaultize(sessionID, results)
	if err != nil {
		return ProtectResult{}, err
	}

	return ProtectResult{
		SessionID:    sessionID,
		Text:         substituteValues(text, valueToToken),
		Findings:     results,
		TokensIssued: len(valueToToken),
		Alerts:       alerts,
		AuditSummary: summarize(sessionID, results),
	}, nil
}

func (g *Gateway) protectFields(sessionID string, fields map[string]any) (ProtectResult, error) {
	results := g.scanner.Scan(fields)
	g.metrics.ScanResultsTotal.Add(int64(len(results)))

	valueToToken, alerts, err := g.vaultize(sessionID, results)
	if err != nil {
		return ProtectResult{}, err
	}

	return ProtectResult{
		SessionID:    sessionID,
		Fields:       substituteFields(fields, valueToToken),
		Findings:     results,
		TokensIssued: len(valueToToken),
		Alerts:       alerts,
		AuditSummary: summarize(sessionID, results),
	}, nil
}

// vaultize stores every distinct value among results under sessionID,
// returning a value->token map ready for substitution and any alerts
// that fired along the way. A repeated value is only vaulted once,
// keeping its highest-confidence ScanResult (the one already chosen by
// the scanner's own value-based dedup).
func (g *Gateway) vaultize(sessionID string, results []types.ScanResult) (map[string]string, []vault.Alert, error) {
	valueToToken := make(map[string]string, len(results))
	var alerts []vault.Alert

	for _, r := range results {
		if _, exists := valueToToken[r.Value]; exists {
			continue
		}
		token, alert, err := g.vault.Store(vault.RoleOwner, sessionID, r)
		if err != nil {
			return nil, nil, err
		}
		valueToToken[r.Value] = token
		g.metrics.ItemsVaulted.Add(1)
		if alert != nil {
			alerts = append(alerts, *alert)
			g.metrics.AlertsFired.Add(1)
		}
	}

	return valueToToken, alerts, nil
}

// Restore reverses token substitution in text for the given session.
func (g *Gateway) Restore(sessionID, text string) (string, error) {
	g.metrics.RestoreCalls.Add(1)
	return g.resolver.Resolve(sessionID, text)
}

// Audit returns the audit trail for one session.
func (g *Gateway) Audit(sessionID string) []vault.AuditEntry {
	return g.vault.AuditLog().ForSession(sessionID)
}

// RevokeSession marks every vaulted entry for sessionID inaccessible.
func (g *Gateway) RevokeSession(sessionID string) (int, error) {
	n, err := g.vault.RevokeSession(sessionID)
	if err == nil {
		g.metrics.SessionsRevoked.Add(1)
	}
	return n, err
}

// PurgeSession permanently deletes every vaulted entry for sessionID.
func (g *Gateway) PurgeSession(sessionID string) (int, error) {
	n, err := g.vault.PurgeSession(sessionID)
	if err == nil {
		g.metrics.SessionsPurged.Add(1)
	}
	return n, err
}

// Close releases the underlying vault backend's resources.
func (g *Gateway) Close() error {
	return g.vault.Close()
}

// newSessionID mints a session id with 9 random bytes (72 bits), the top
// of the spec's 64-72 bit range, hex-encoded behind the "sess_" prefix.
func newSessionID() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(buf), nil
}

// substituteValues replaces every occurrence of each value in text with
// its token, longest value first so one value can never be a substring
// of another that hasn't been replaced yet (e.g. a bare phone number
// appearing inside a longer matched string).
func substituteValues(text string, valueToToken map[string]string) string {
	if len(valueToToken) == 0 {
		return text
	}
	values := make([]string, 0, len(valueToToken))
	for v := range valueToToken {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return len(values[i]) > len(values[j]) })

	out := text
	for _, v := range values {
		out = strings.ReplaceAll(out, v, valueToToken[v])
	}
	return out
}

// substituteFields applies substituteValues to every string leaf of a
// nested map, returning a new map (the input is not mutated).
func substituteFields(fields map[string]any, valueToToken map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch vv := v.(type) {
		case string:
			out[k] = substituteValues(vv, valueToToken)
		case map[string]any:
			out[k] = substituteFields(vv, valueToToken)
		default:
			out[k] = v
		}
	}
	return out
}
