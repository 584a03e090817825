// Package management provides a lightweight HTTP API for runtime
// inspection of a running gateway instance.
//
// Endpoints:
//
//	GET /status           - gateway health, uptime, active config summary
//	GET /metrics          - counters and latency stats (see internal/metrics)
//	GET /audit/{sessionID} - masked audit trail for one session
//
// The API is served over h2c (HTTP/2 without TLS) since it is meant for
// trusted operator/sidecar access within a cluster, not for the public
// internet; golang.org/x/net/http2 supplies the h2c handler wrapper.
package management

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"confidential-gateway/internal/config"
	"confidential-gateway/internal/metrics"
	"confidential-gateway/internal/vault"
)

// Gateway is the subset of *gateway.Gateway the management API depends
// on. Declaring it here (rather than importing package gateway
// directly) avoids a management<->gateway import cycle, since the
// gateway's cmd wiring constructs both from the same *gateway.Gateway
// value.
type Gateway interface {
	Metrics() *metrics.Metrics
	Audit(sessionID string) []vault.AuditEntry
	Manifest() map[string]string
}

// Server is the gateway's management API server.
type Server struct {
	cfg       *config.Config
	startTime time.Time
	gateway   Gateway
	token     string // bearer token for auth; empty = no auth
}

// New creates a management server bound to gw.
func New(cfg *config.Config, gw Gateway) *Server {
	s := &Server{
		cfg:       cfg,
		startTime: time.Now(),
		gateway:   gw,
		token:     cfg.ManagementToken,
	}
	if s.token != "" {
		log.Printf("[MANAGEMENT] Bearer token authentication enabled")
	}
	return s
}

// Handler returns the HTTP handler for the management API, wrapped for
// h2c so it can serve HTTP/2 over plaintext to an in-cluster caller.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/audit/", s.handleAudit)
	return h2c.NewHandler(s.authMiddleware(mux), &http2.Server{})
}

// authMiddleware checks for a valid Bearer token if one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(auth[len(prefix):])), []byte(s.token)) != 1 {
			log.Printf("[MANAGEMENT] Unauthorized access attempt from %s to %s", r.RemoteAddr, r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Status         string            `json:"status"`
		Uptime         string            `json:"uptime"`
		ManagementPort int               `json:"managementPort"`
		Manifest       map[string]string `json:"manifest"`
		Scanner        struct {
			Families    []string `json:"families"`
			Sensitivity string   `json:"sensitivity"`
		} `json:"scanner"`
		Vault struct {
			Backend            string `json:"backend"`
			TokenExpiryMinutes int    `json:"tokenExpiryMinutes"`
			Encryption         bool   `json:"encryption"`
		} `json:"vault"`
	}

	resp := response{
		Status:         "running",
		Uptime:         time.Since(s.startTime).Round(time.Second).String(),
		ManagementPort: s.cfg.ManagementPort,
		Manifest:       s.gateway.Manifest(),
	}
	resp.Scanner.Families = s.cfg.Scanner.Families
	resp.Scanner.Sensitivity = s.cfg.Scanner.Sensitivity
	resp.Vault.Backend = s.cfg.Vault.Backend
	resp.Vault.TokenExpiryMinutes = s.cfg.Vault.TokenExpiryMinutes
	resp.Vault.Encryption = s.cfg.Vault.Encryption

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.gateway.Metrics().Snapshot())
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/audit/")
	if sessionID == "" {
		http.Error(w, "session id required: /audit/{sessionID}", http.StatusBadRequest)
		return
	}
	entries := s.gateway.Audit(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{"sessionID": vault.MaskSessionID(sessionID), "entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[MANAGEMENT] JSON encode error: %v", err)
	}
}

// ListenAndServe starts the management HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.ManagementPort)
	log.Printf("[MANAGEMENT] Listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
