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

	"github.com/chishiki/chishiki/internal/handlers"
	"github.com/chishiki/chishiki/internal/infrastructure/config"
	"github.com/chishiki/chishiki/internal/infrastructure/database"
	"github.com/chishiki/chishiki/internal/infrastructure/metrics"
	"github.com/chishiki/chishiki/internal/repositories/postgres"
	"github.com/chishiki/chishiki/internal/services/authorization"
	"github.com/chishiki/chishiki/internal/services/identity"
	"github.com/chishiki/chishiki/pkg/cache/memorycache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultEnv = "dev"
)

func main() {
	// Get environment from ENV variable or use default
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	// Initialize configuration
	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	log.Printf("Connected to database: %s@%s:%d/%s",
		cfg.Database.User,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database)

	// Initialize repositories
	userRepo := postgres.NewPostgresUserRepository(pg.DB)
	contentRepo := postgres.NewPostgresContentRepository(pg.DB)
	viewRepo := postgres.NewPostgresViewRepository(pg.DB)

	// Initialize metrics
	collector := metrics.NewCollector()
	exporter := metrics.NewPrometheusExporter(collector)

	// Initialize identity resolver, with caching if enabled
	var resolver identity.ResolverInterface
	if cfg.Cache.Enabled {
		identityCache := memorycache.New(&memorycache.Config{
			MaxSizeBytes: cfg.Cache.MaxMemoryBytes,
			DefaultTTL:   time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		})
		collector.SetCache(identityCache)
		resolver = identity.NewResolverWithCache(
			userRepo,
			identityCache,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		)
		log.Printf("Identity cache enabled: %d bytes, TTL %ds", cfg.Cache.MaxMemoryBytes, cfg.Cache.TTLSeconds)
	} else {
		resolver = identity.NewResolver(userRepo)
		log.Println("Identity cache disabled")
	}

	// Initialize authorization gateway
	gateway := authorization.NewGateway(resolver, contentRepo, viewRepo, exporter)

	// Build the API mux
	mux := http.NewServeMux()
	handlers.NewContentHandler(gateway, resolver, contentRepo).Register(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.HealthCheck(); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      metrics.Middleware(collector, exporter)(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Metrics server on a separate port
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	// Refresh gauge metrics periodically
	updateDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				exporter.Update()
			case <-updateDone:
				return
			}
		}
	}()

	serverErrors := make(chan error, 2)
	go func() {
		log.Printf("HTTP server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		log.Printf("Metrics server listening on %s", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Initiating graceful shutdown...")

		close(updateDone)

		// Create shutdown context with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}

		// Close database connection
		if err := pg.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}

		log.Println("Shutdown complete")
	}
}
