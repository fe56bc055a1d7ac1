package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/api"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/api/handlers"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/cache"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/database"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/document"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/embedding"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/storage"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/videoapi"
	"github.com/garethbreeze1993/MCQ-Generator-AI/pkg/tokenizer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := cache.NewClient(cfg.Redis)
	defer rdb.Close()
	redisCache := cache.NewCache(rdb)
	if err := redisCache.Ping(ctx); err != nil {
		slog.Warn("redis unavailable at startup", "error", err)
	}

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	// Loads the BPE ranks once so the first video request does not pay for it.
	tok, err := tokenizer.Default()
	if err != nil {
		slog.Error("failed to load tokenizer", "error", err)
		os.Exit(1)
	}

	videoAPI := videoapi.NewClient(cfg.VideoAPI)
	videoRepo := video.NewRepository(db)
	docSvc := document.NewService(document.NewRepository(db), storage.NewMediaStore(cfg.Ingestion.MediaRoot), queueClient)
	videoSvc := video.NewService(videoRepo, queueClient, tok, videoAPI)
	vectors := vectorstore.NewPgVectorStore(db, embedding.NewService(cfg.Embedding))

	router := api.NewRouter(cfg, api.Deps{
		Documents: docSvc,
		Videos:    videoSvc,
		Webhooks:  videoRepo,
		Vectors:   vectors,
		Checks: map[string]handlers.Check{
			"database":  db.Ping,
			"redis":     redisCache.Ping,
			"video_api": videoAPI.Test,
		},
	})
	go router.SweepVisitors(ctx, 10*time.Minute)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
