// Package main is the entry point for the BlockID Guardian backend server.
// It provides a REST API for media ingestion, deepfake risk analysis,
// fingerprint anchoring, and hash-based authenticity verification.
//
// Architecture:
//   - Every upload is fingerprinted (SHA-256) and anchored in a
//     hash-chained append-only log (LevelDB)
//   - Analysis verdicts are attached at ingestion and never mutated
//   - Verification replays the chain link by link, so tampering surfaces
//     as an integrity violation rather than a silent "not found"
//   - A background worker re-audits the whole chain periodically
//
// The record store is PostgreSQL when DATABASE_URL is configured and an
// embedded SQLite file otherwise, so a single binary serves both the
// hosted deployment and local setups.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/blockid/guardian-server/internal/analyzer"
	"github.com/blockid/guardian-server/internal/anchor"
	"github.com/blockid/guardian-server/internal/blobstore"
	"github.com/blockid/guardian-server/internal/config"
	"github.com/blockid/guardian-server/internal/database"
	"github.com/blockid/guardian-server/internal/handlers"
	"github.com/blockid/guardian-server/internal/middleware"
	"github.com/blockid/guardian-server/internal/services"
	"github.com/blockid/guardian-server/internal/store"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting BlockID Guardian Server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"anchor_db", cfg.AnchorDBPath,
	)

	// Record store: PostgreSQL when DATABASE_URL is configured, embedded
	// SQLite otherwise.
	var records store.Store
	if cfg.DatabaseURL != "" {
		pool, perr := database.NewPool(context.Background(), cfg.DatabaseURL)
		if perr != nil {
			sugar.Fatalf("Failed to connect to database: %v", perr)
		}
		pg, perr := store.NewPostgres(context.Background(), pool)
		if perr != nil {
			sugar.Fatalf("Failed to prepare database schema: %v", perr)
		}
		records = pg
	} else {
		sq, serr := store.OpenSQLite(cfg.SQLitePath)
		if serr != nil {
			sugar.Fatalf("Failed to open record store: %v", serr)
		}
		records = sq
	}
	defer records.Close()

	// Anchor chain (append-only, hash-linked)
	chain, err := anchor.Open(cfg.AnchorDBPath)
	if err != nil {
		sugar.Fatalf("Failed to open anchor log: %v", err)
	}
	defer chain.Close()

	// Content spool for uploaded bytes
	spool, err := blobstore.NewLocalStore(cfg.SpoolDir)
	if err != nil {
		sugar.Fatalf("Failed to prepare content spool: %v", err)
	}

	// Verdict policy: built-in defaults, optionally overridden from YAML
	policy := services.DefaultVerdictPolicy()
	if cfg.PolicyFile != "" {
		policy, err = services.LoadVerdictPolicy(cfg.PolicyFile)
		if err != nil {
			sugar.Fatalf("Failed to load verdict policy: %v", err)
		}
		sugar.Infow("Loaded verdict policy override", "file", cfg.PolicyFile)
	}

	// Initialize services
	ledger := services.NewLedgerService(records, chain, analyzer.NewHeuristic(), spool, services.LedgerConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RetainContent:  cfg.RetainContent,
		Policy:         policy,
	}, sugar)
	statusSvc := services.NewStatusService(records, sugar)
	auditWorker := services.NewChainAuditWorker(chain, sugar)

	// Start background chain auditor (re-verifies every entry periodically)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go auditWorker.Start(workerCtx, time.Duration(cfg.AuditInterval)*time.Minute)

	// Initialize handlers
	mediaHandler := handlers.NewMediaHandler(ledger, cfg.MaxUploadBytes, sugar)
	verifyHandler := handlers.NewVerifyHandler(ledger, sugar)
	statusHandler := handlers.NewStatusHandler(statusSvc, sugar)
	healthHandler := handlers.NewHealthHandler(records, ledger, sugar)
	auditHandler := handlers.NewAuditHandler(ledger, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/", healthHandler.Banner)

		// Health checks
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Media ingestion and listing
		r.Post("/upload", mediaHandler.Upload)
		r.Get("/media", mediaHandler.List)

		// Hash verification
		r.Post("/verify/{hash}", verifyHandler.Verify)
		r.Get("/verifications", verifyHandler.List)

		// Legacy status checks (dashboard polling)
		r.Post("/status", statusHandler.Create)
		r.Get("/status", statusHandler.List)

		// Operator endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Get("/audit", auditHandler.Audit)
		})
	})

	// Serve static files (dashboard build) when configured
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
