package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/light-bringer/listsync-service/internal/metrics"
	"github.com/light-bringer/listsync-service/internal/services"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := loadConfig()

	log.Printf("Starting Listing Sync Service...")
	log.Printf("Spanner Database: %s", config.Service.SpannerDB)
	log.Printf("Marketplace API: %s", config.Service.MarketplaceBaseURL)
	log.Printf("HTTP Port: %s", config.HTTPPort)

	metrics.Register()

	serviceOpts, err := services.NewServiceOptions(ctx, config.Service)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer serviceOpts.Close()

	httpServer := &http.Server{
		Addr:    ":" + config.HTTPPort,
		Handler: serviceOpts.Server,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", config.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	go func() {
		log.Printf("Publisher running every %s", config.Service.PublishInterval)
		if err := serviceOpts.Publisher.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Publisher error: %v", err)
		}
	}()

	go func() {
		log.Printf("Reconciler running every %s", config.Service.ReconcileInterval)
		if err := serviceOpts.Reconciler.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Reconciler error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	return nil
}

// Config holds application configuration.
type Config struct {
	Service  services.Config
	HTTPPort string
}

// loadConfig loads configuration from environment variables with defaults.
func loadConfig() Config {
	spannerDB := os.Getenv("SPANNER_DATABASE")
	if spannerDB == "" {
		// Default for local development with emulator
		spannerDB = "projects/test-project/instances/dev-instance/databases/listsync-db"
	}

	return Config{
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),
		Service: services.Config{
			SpannerDB:            spannerDB,
			MarketplaceBaseURL:   getEnvOrDefault("MARKETPLACE_BASE_URL", "http://localhost:9400"),
			MarketplaceAuthToken: os.Getenv("MARKETPLACE_AUTH_TOKEN"),
			MarketplaceUserAgent: getEnvOrDefault("MARKETPLACE_USER_AGENT", "listsync-service/1.0"),
			OperatorToken:        os.Getenv("OPERATOR_TOKEN"),
			PublishInterval:      getEnvDuration("PUBLISH_INTERVAL", 5*time.Second),
			ReconcileInterval:    getEnvDuration("RECONCILE_INTERVAL", 15*time.Minute),
			ReconcilePageSize:    getEnvInt64("RECONCILE_PAGE_SIZE", 100),
			PublishBatchMax:      int(getEnvInt64("PUBLISH_BATCH_MAX", 100)),
			LeaseDuration:        getEnvDuration("LEASE_DURATION", 5*time.Minute),
			PolicyTTL:            getEnvDuration("POLICY_TTL", 24*time.Hour),
			SnapshotStaleAfter:   getEnvDuration("SNAPSHOT_STALE_AFTER", 7*24*time.Hour),
		},
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

func getEnvInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Printf("Invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}
