package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wa-dashboard-go/internal/api"
	"wa-dashboard-go/internal/config"
	"wa-dashboard-go/internal/features/monitor"
	"wa-dashboard-go/internal/firestore"
	"wa-dashboard-go/internal/logger"
	"wa-dashboard-go/internal/sqlite"
	"wa-dashboard-go/internal/webhook"
	"wa-dashboard-go/internal/whatsapp"

	"go.uber.org/zap"
)

func main() {
	fmt.Println("\n🚀 Initializing WhatsApp Dashboard Server (Go)...")
	fmt.Println("=========================================")

	// Load configuration
	cfg := config.Load()

	zl, err := logger.Init(cfg.LogMode, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	if cfg.InstanceURL == "" {
		zap.S().Warn("⚠️ WA_INSTANCE_URL is not set, session bootstrap will fail until configured")
	} else {
		zap.S().Infof("📌 Instance service: %s", cfg.InstanceURL)
	}

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		zap.S().Fatalf("❌ Failed to open webhook store: %v", err)
	}
	defer closeStore.Close()

	// Session bootstrap
	bootstrapper := whatsapp.NewBootstrapper(cfg.InstanceURL, cfg.QRDelay, cfg.HTTPTimeout, cfg.QRAttempts)
	waManager := whatsapp.NewManager(bootstrapper)

	webhooks := webhook.NewService(store, cfg.PublicURL, cfg.HTTPTimeout)

	mon := monitor.NewMonitorService(cfg.InstanceURL, cfg.MonitorSchedule, cfg.HTTPTimeout)

	server := api.NewServer(cfg, waManager, mon, webhooks)

	if err := mon.Start(); err != nil {
		zap.S().Fatalf("❌ Failed to start monitor: %v", err)
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		zap.S().Info("⚠️ Shutdown signal received...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		mon.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorf("❌ HTTP shutdown: %v", err)
		}
		waManager.Close()
	}()

	// Start server
	if err := server.Start(); err != nil {
		zap.S().Fatalf("Failed to start server: %v", err)
	}
	zap.S().Info("✅ Cleanup complete. Goodbye!")
}

// openStore prefers Firestore when a project is configured and falls back
// to the local SQLite file otherwise.
func openStore(ctx context.Context, cfg *config.Config) (webhook.Store, io.Closer, error) {
	if cfg.UseFirestore() {
		fsClient, err := firestore.NewClient(ctx, cfg.GoogleCredentials, cfg.FirebaseProjectID)
		if err != nil {
			return nil, nil, err
		}
		zap.S().Info("📌 Webhook data: Firestore")
		return firestore.NewWebhookRepository(fsClient), fsClient, nil
	}

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	zap.S().Infof("📌 Webhook data: SQLite (%s)", cfg.SQLitePath)
	return store, store, nil
}
