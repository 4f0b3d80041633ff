package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyeonwoo/ledgerflow/internal/api"
	"github.com/hyeonwoo/ledgerflow/internal/api/middleware"
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
		ServiceName: "ledgerflow-api",
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

	intake := service.NewIntakeService(jobRepo, txnRepo, taskQueue, fileStore, appLogger)

	router := api.SetupRouter(intake, appLogger, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("port", cfg.Server.Port).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("API server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("API server shutdown failed")
	}
	appLogger.Info("API server stopped")
}
