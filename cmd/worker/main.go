package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyeonwoo/ledgerflow/internal/config"
	"github.com/hyeonwoo/ledgerflow/internal/logger"
	"github.com/hyeonwoo/ledgerflow/internal/queue"
	"github.com/hyeonwoo/ledgerflow/internal/repository"
	"github.com/hyeonwoo/ledgerflow/internal/service"
	"github.com/hyeonwoo/ledgerflow/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(nil).WithError(err).Fatal("Failed to load config")
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		ServiceName: "ledgerflow-worker",
	})
	logger.SetDefaultLogger(appLogger)

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	jobRepo := repository.NewJobRepository(db)
	txnRepo := repository.NewTransactionRepository(db)

	taskQueue := queue.NewRedisQueue(&queue.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Queue:    cfg.Redis.Queue,
	})
	defer taskQueue.Close()

	fileStore, err := storage.NewStore(&cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize file store")
	}

	processor := service.NewProcessor(jobRepo, txnRepo, fileStore, appLogger, &service.ProcessorConfig{
		CheckpointRows: cfg.Worker.CheckpointRows,
	})

	notifier := service.NewNotifier(&service.NotifierConfig{
		WebhookURL: cfg.Notify.WebhookURL,
		Timeout:    cfg.Notify.Timeout,
	}, appLogger)

	worker := service.NewWorker(taskQueue, processor, jobRepo, notifier, appLogger, &service.WorkerConfig{
		PollTimeout:  cfg.Worker.PollTimeout,
		QueueBackoff: cfg.Worker.QueueBackoff,
	})

	// Cooperative shutdown: cancel between jobs, never mid-job.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutdown signal received, stopping after current job")
		cancel()
	}()

	worker.Run(ctx)
	appLogger.Info("Worker stopped")
}
