package management

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"confidential-gateway/internal/config"
	"confidential-gateway/internal/metrics"
	"confidential-gateway/internal/vault"
)

type fakeGateway struct {
	m *metrics.Metrics
}

func (f fakeGateway) Metrics() *metrics.Metrics { return f.m }

func (f fakeGateway) Audit(sessionID string) []vault.AuditEntry {
	return []vault.AuditEntry{{Operation: vault.OpStore, Result: vault.ResultSuccess, MaskedSession: vault.MaskSessionID(sessionID)}}
}

func (f fakeGateway) Manifest() map[string]string {
	return map[string]string{"name": "confidential-gateway", "version": "1.0.0"}
}

func newTestServer() *Server {
	cfg := config.Defaults()
	return New(cfg, fakeGateway{m: metrics.New()})
}

func TestHandleStatus_ReturnsManifest(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleMetrics_ReturnsSnapshot(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleAudit_RequiresSessionID(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/audit/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAudit_ReturnsMaskedSession(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/audit/sess_abc123456789", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := vault.MaskSessionID("sess_abc123456789")
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("expected masked session id %q in response body %q", want, rec.Body.String())
	}
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	cfg := config.Defaults()
	cfg.ManagementToken = "secret-token"
	s := New(cfg, fakeGateway{m: metrics.New()})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	cfg := config.Defaults()
	cfg.ManagementToken = "secret-token"
	s := New(cfg, fakeGateway{m: metrics.New()})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
