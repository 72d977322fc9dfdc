package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	relayConfig "github.com/rpay/chat-relay/internal/config"
	"github.com/rpay/chat-relay/internal/database"
	"github.com/rpay/chat-relay/internal/metrics"
	"github.com/rpay/chat-relay/internal/middleware"
	"github.com/rpay/chat-relay/internal/proxy"
	"github.com/rpay/chat-relay/internal/upstream/sarvam"
)

func main() {
	logger := log.New(os.Stdout, "[chat-relay] ", log.LstdFlags|log.Lshortfile)

	logger.Println("Starting Chat Relay...")

	cfg, err := relayConfig.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Printf("Configuration loaded successfully")
	logger.Printf("Port: %s", cfg.Port)
	logger.Printf("Upstream: %s (model %s)", cfg.ChatEndpoint, cfg.Generation.Model)
	logger.Printf("Frontend: %s", cfg.FrontendDir)

	// Open the runner log (truncate on each run) for relay events
	runnerFile, err := os.Create(cfg.RunnerLog)
	if err != nil {
		logger.Fatalf("Failed to create %s: %v", cfg.RunnerLog, err)
	}
	defer runnerFile.Close()
	runnerLogger := log.New(runnerFile, "", log.LstdFlags)

	var (
		relayLog     proxy.RelayLogger
		relayHistory proxy.RelayHistory
	)
	if cfg.LogDBPath != "" {
		db, err := database.New(cfg.LogDBPath)
		if err != nil {
			logger.Fatalf("Failed to initialize relay log database: %v", err)
		}
		defer db.Close()
		relayLog = db
		relayHistory = db
		logger.Printf("Relay log: %s", cfg.LogDBPath)
	}

	// Initialize components
	client := sarvam.NewClient(cfg.ChatEndpoint, cfg.APIKey, cfg.Timeouts.UpstreamHeaders)
	collector := metrics.NewCollector()
	stats := metrics.NewStats()
	loggingMiddleware := middleware.NewLoggingMiddleware(logger)
	recovery := middleware.Recovery(runnerLogger)
	cors := middleware.CORS(middleware.DefaultCORSConfig())

	chatHandler := proxy.NewHandler(cfg, client, logger, runnerLogger, collector, stats, relayLog)

	// Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", proxy.HealthCheck)
	mux.Handle("GET /metrics", collector.Handler())
	mux.Handle("GET /stats", stats.Handler())
	mux.Handle("/chat",
		loggingMiddleware.LogRequest(
			recovery(
				cors(
					http.HandlerFunc(chatHandler.HandleChat)))))
	if relayHistory != nil {
		mux.Handle("GET /relays", loggingMiddleware.LogRequest(proxy.HandleRecentRelays(relayHistory, runnerLogger)))
	}
	mux.Handle("/", loggingMiddleware.LogRequest(chatHandler.HandleStatic()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No Read/WriteTimeout: either would cut off long streamed replies.
	}

	go func() {
		logger.Printf("Server listening on http://0.0.0.0:%s", cfg.Port)
		logger.Println("Routes:")
		logger.Println("  GET  /          - Frontend")
		logger.Println("  POST /chat      - Streamed chat relay")
		logger.Println("  GET  /health    - Health check")
		logger.Println("  GET  /metrics   - Prometheus metrics")
		logger.Println("  GET  /stats     - Relay statistics")
		if relayHistory != nil {
			logger.Println("  GET  /relays    - Recent relay log entries")
		}
		logger.Println("Press Ctrl+C to stop...")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("Server forced to shutdown: %v", err)
	}
	logger.Println("Server stopped gracefully")
}
