// Package main is the entry point for the stock audit server.
//
// The server turns pasted brokerage tables or uploaded documents into a
// scored, classified audit of each security. LLM providers handle the
// messy extraction and narrative work; scoring itself is deterministic.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mkamal/stockaudit/internal/audit"
	"github.com/mkamal/stockaudit/internal/config"
	"github.com/mkamal/stockaudit/internal/database"
	"github.com/mkamal/stockaudit/internal/extraction"
	"github.com/mkamal/stockaudit/internal/history"
	"github.com/mkamal/stockaudit/internal/llm"
	"github.com/mkamal/stockaudit/internal/narrative"
	"github.com/mkamal/stockaudit/internal/pipeline"
	"github.com/mkamal/stockaudit/internal/scheduler"
	"github.com/mkamal/stockaudit/internal/server"
	"github.com/mkamal/stockaudit/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("profile", cfg.ScoringProfile).Msg("Starting stock audit server")

	// History gets the ledger profile: runs are the audit trail and must
	// survive crashes. The narrative cache is rebuildable, so it runs fast.
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileLedger,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	repo, err := history.NewRepository(historyDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize run repository")
	}

	narrativeCache, err := history.NewNarrativeCache(cacheDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize narrative cache")
	}

	profile, err := audit.ProfileByName(cfg.ScoringProfile)
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown scoring profile")
	}

	ctx := context.Background()

	model := cfg.LLMModel
	if model == "" && cfg.LLMProvider == "claude" {
		model = "claude-sonnet-4-20250514"
	}

	provider, err := llm.New(ctx, llm.Config{
		Model:           model,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Timeout:         cfg.LLMTimeout,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM provider")
	}
	defer provider.Close()

	extractor := extraction.New(provider, log)
	narrator := narrative.New(provider, narrativeCache, log)
	engine := audit.NewEngine(profile, log)

	pipe := pipeline.New(extractor, narrator, engine, repo, profile.Name, log)

	sched := scheduler.New(log)
	cleanup := history.NewCleanupJob(repo, narrativeCache, cfg.HistoryRetentionDays, log)
	if err := sched.AddJob("@daily", cleanup); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cleanup job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Pipeline:  pipe,
		Runs:      repo,
		HistoryDB: historyDB,
		CacheDB:   cacheDB,
		Profile:   profile.Name,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
