package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"easylesson/config"
	"easylesson/internal/ai"
	"easylesson/internal/api"
	"easylesson/internal/generator"
	"easylesson/internal/logger"
	"easylesson/internal/retention"
	"easylesson/internal/storage"
	"easylesson/internal/store"
	"easylesson/internal/tts"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.DotEnvErr != nil {
		log.Warn("no .env file loaded", "error", cfg.DotEnvErr)
	}
	log.Info("starting EasyLesson", "version", api.Version, "env", cfg.Server.Env)

	completer, configured := ai.New(&cfg.LLM, log)
	if !configured {
		log.Warn("no LLM API key configured, generation endpoints will return 503", "provider", cfg.LLM.Provider)
	}

	st, err := store.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open store", "driver", cfg.Database.Driver, "error", err)
	}
	defer st.Close()

	deps := api.Deps{
		Generator:     generator.NewService(completer, log),
		Store:         st,
		LLMConfigured: configured,
		Log:           log,
	}

	// archive stays a nil interface when MinIO is off
	var remover retention.ArchiveRemover
	if cfg.MinIO.Enabled() {
		minioClient, err := storage.NewMinioClient(&cfg.MinIO, log)
		if err != nil {
			log.Error("MinIO unavailable, archiving and narration disabled", "endpoint", cfg.MinIO.Endpoint, "error", err)
		} else {
			archive := storage.NewArchive(minioClient)
			deps.Archive = archive
			deps.TTS = tts.NewEdgeTTS(&cfg.TTS, log)
			remover = archive
		}
	}

	sweeper := retention.New(st, remover, &cfg.Retention, log)
	if err := sweeper.Start(); err != nil {
		log.Error("failed to schedule retention", "error", err)
	}
	defer sweeper.Stop()

	server := api.NewServer(cfg, deps)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
