package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/globaltelecom/voicebridge/internal/auth"
	"github.com/globaltelecom/voicebridge/internal/cache"
	"github.com/globaltelecom/voicebridge/internal/config"
	"github.com/globaltelecom/voicebridge/internal/dispatch"
	"github.com/globaltelecom/voicebridge/internal/enrich"
	"github.com/globaltelecom/voicebridge/internal/forward"
	"github.com/globaltelecom/voicebridge/internal/httpx"
	"github.com/globaltelecom/voicebridge/internal/metrics"
	"github.com/globaltelecom/voicebridge/internal/qualify"
	"github.com/globaltelecom/voicebridge/internal/storage"
	"github.com/globaltelecom/voicebridge/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("enrich_sources", cfg.EnrichSources).
		Str("default_subdomain", cfg.DefaultSubdomain).
		Str("log_level", cfg.LogLevel).
		Msg("starting voicebridge server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbound HTTP client shared by lookups and the keypress forwarder
	httpClient := httpx.NewClient(cfg.ConnectTimeout, cfg.RequestTimeout, cfg.MaxRetries, cfg.BackoffBase, log.Logger)

	// Identity cache and enrichment sources
	identityCache := cache.NewIdentityCache(cfg.CacheTTL)
	sources := buildSources(cfg, httpClient)
	resolver := enrich.NewResolver(identityCache, sources, log.Logger)

	// Keypress forwarder toward the telephony platform
	tdAuth := forward.BasicToken(cfg.TrackDrivePublicKey, cfg.TrackDrivePrivateKey, cfg.TrackDriveAuth)
	forwarder := forward.NewForwarder(httpClient, tdAuth, cfg.DefaultSubdomain, log.Logger)

	// Lead record store (disabled unless DYNAMO_MODE is set)
	store := buildStore(ctx)

	dispatcher := dispatch.NewDispatcher(resolver, forwarder, store, qualify.Thresholds{
		MinDebtAmount:    cfg.MinDebtAmount,
		MinMonthlyIncome: cfg.MinMonthlyIncome,
	}, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)

	// Internal routes (no auth - for operators behind the network boundary)
	r.Route("/internal", func(r chi.Router) {
		r.Get("/stats", metrics.Handler)
		r.Get("/leads", dispatcher.HandleLeads)
	})

	// Webhook routes behind the shared-secret check
	r.Group(func(r chi.Router) {
		r.Use(auth.SharedSecret(cfg.ServerSecret, log.Logger))
		r.Post("/webhook/call", dispatcher.HandleWebhook)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// buildSources assembles the enrichment lookup chain in configured order
func buildSources(cfg *config.Config, client *httpx.Client) []enrich.Source {
	var sources []enrich.Source
	for _, name := range cfg.EnrichSources {
		switch name {
		case "textback":
			sources = append(sources, enrich.NewTextBackSource(client, cfg.TextBackURL, cfg.TextBackToken, cfg.TextBackSecret))
		case "omnia":
			sources = append(sources, enrich.NewOmniaSource(client, cfg.OmniaURL, cfg.OmniaAPIKey))
		default:
			log.Warn().Str("source", name).Msg("unknown enrichment source, skipping")
		}
	}
	return sources
}

// buildStore selects the lead record store from the environment. Webhook
// handling never depends on it; the noop store keeps the server stateless.
func buildStore(ctx context.Context) storage.Store {
	dynamoCfg := storage.LoadDynamoConfig()
	if dynamoCfg.Mode == storage.DynamoModeNone {
		log.Info().Msg("lead persistence disabled")
		return storage.NewNoopStore()
	}

	store, err := storage.NewDynamoDBStore(ctx, dynamoCfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize DynamoDB store")
	}
	return store
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"voicebridge"}`)
}
