// Command gateway runs the confidential-data gateway as a standalone
// service: a scanner/vault/resolver pipeline sitting in front of an AI
// model call, plus a management API for operator inspection.
//
// It is a library-first design — package gateway is meant to be
// embedded directly ahead of a model call — but this binary exists so
// the same pipeline can run as a sidecar process reachable over the
// management API.
//
// Usage:
//
//	# Development (insecure default vault secret, logged loudly)
//	./gateway
//
//	# Production
//	FRAMEWORK_VAULT_SECRET=... GATEWAY_VAULT_BACKEND=bbolt ./gateway
//
//	# Custom management port
//	GATEWAY_MANAGEMENT_PORT=9091 ./gateway
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"confidential-gateway/internal/config"
	"confidential-gateway/internal/gateway"
	"confidential-gateway/internal/management"
	"confidential-gateway/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[GATEWAY] Config error: %v", err)
	}

	printBanner(cfg)

	gw, err := gateway.New(cfg, onAlert)
	if err != nil {
		log.Fatalf("[GATEWAY] Fatal: %v", err)
	}
	defer func() {
		if err := gw.Close(); err != nil {
			log.Printf("[GATEWAY] Vault close error: %v", err)
		}
	}()

	mgmt := management.New(cfg, gw)
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.ManagementPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mgmt.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("[MANAGEMENT] Listening on %s", addr)

	// Graceful shutdown on SIGINT / SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Printf("[GATEWAY] Shutting down…")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("[MANAGEMENT] Shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[MANAGEMENT] Fatal: %v", err)
	}
}

func onAlert(a vault.Alert) {
	log.Printf("[ALERT] %s family=%s level=%s token=%s rotate=%v",
		a.SessionID, a.Family, a.AlertLevel, vault.MaskToken(a.Token), a.RecommendRotation)
}

func printBanner(cfg *config.Config) {
	secretNote := "(loaded from FRAMEWORK_VAULT_SECRET)"
	if cfg.UsingDefaultSecret {
		secretNote = "(INSECURE built-in default — set FRAMEWORK_VAULT_SECRET)"
	}

	fmt.Printf(`
╔══════════════════════════════════════════════════════╗
║          Confidential Data Gateway  (Go)             ║
╚══════════════════════════════════════════════════════╝
  Management port : %d
  Vault backend   : %s
  Vault secret    : %s
  Encryption      : %v
  Token expiry    : %d minutes
  Scanner families: %v
  Sensitivity     : %s
  Strict session  : %v

  Check status:
    curl http://localhost:%d/status
`, cfg.ManagementPort,
		cfg.Vault.Backend,
		secretNote,
		cfg.Vault.Encryption,
		cfg.Vault.TokenExpiryMinutes,
		cfg.Scanner.Families,
		cfg.Scanner.Sensitivity,
		cfg.Resolver.StrictSession,
		cfg.ManagementPort)
}
