package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/cache"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/database"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/document"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/embedding"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/notify"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue/workers"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/storage"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/videoapi"
	"github.com/garethbreeze1993/MCQ-Generator-AI/pkg/chunker"
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

	rdb := cache.NewClient(cfg.Redis)
	defer rdb.Close()

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	ch, err := chunker.New(chunker.ChunkOptions{
		ChunkSize:    cfg.Ingestion.ChunkSize,
		ChunkOverlap: cfg.Ingestion.ChunkOverlap,
		Strategy:     "recursive",
	})
	if err != nil {
		slog.Error("invalid chunker options", "error", err)
		os.Exit(1)
	}

	mailer, err := newMailer(cfg.Notify)
	if err != nil {
		slog.Error("failed to configure mailer", "error", err)
		os.Exit(1)
	}

	docRepo := document.NewRepository(db)
	videoRepo := video.NewRepository(db)
	vectors := vectorstore.NewPgVectorStore(db, embedding.NewService(cfg.Embedding))
	alerts := workers.NewOperatorAlerts(queueClient, cfg.Notify)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeLibraryIngest, workers.NewDocumentWorker(docRepo, vectors, ch, cache.NewCache(rdb)))
	registry.Register(queue.TypeLibraryVectorDelete, workers.NewVectorDeleteWorker(docRepo, vectors))
	registry.Register(queue.TypeVideoGenerate, workers.NewVideoWorker(videoRepo, videoapi.NewClient(cfg.VideoAPI), queueClient, alerts, cfg.VideoAPI))
	registry.Register(queue.TypeVideoRetrySweep, workers.NewSweepWorker(videoRepo, queueClient))
	registry.Register(queue.TypeVideoArtifactDelete, workers.NewArtifactWorker(storage.NewSupabaseStorage(cfg.Storage)))
	registry.Register(queue.TypeNotifyEmail, workers.NewNotifyWorker(mailer))

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				queue.QueueCritical: 6,
				queue.QueueDefault:  3,
				queue.QueueLow:      1,
			},
			ShutdownTimeout: 30 * time.Second,
		},
	)

	scheduler := asynq.NewScheduler(queue.RedisOpt(cfg.Redis), &asynq.SchedulerOpts{Location: time.UTC})
	entryID, err := scheduler.Register(cfg.Worker.SweepCron, queue.SweepTask(), asynq.Queue(queue.QueueLow), asynq.MaxRetry(0))
	if err != nil {
		slog.Error("failed to register retry sweep", "cron", cfg.Worker.SweepCron, "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting worker", "concurrency", cfg.Worker.Concurrency)
		if err := srv.Start(registry.Mux()); err != nil {
			return err
		}
		<-gctx.Done()
		srv.Shutdown()
		return nil
	})
	g.Go(func() error {
		slog.Info("starting scheduler", "entry_id", entryID, "cron", cfg.Worker.SweepCron)
		if err := scheduler.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		scheduler.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
	slog.Info("worker stopped")
}

func newMailer(cfg config.NotifyConfig) (notify.Mailer, error) {
	if cfg.SendGridKey == "" {
		slog.Warn("SENDGRID_API_KEY not set, emails will only be logged")
		return notify.LogMailer{}, nil
	}
	return notify.NewSendGrid(notify.ConfigFrom(cfg))
}
