package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ponderdome/ponderdome/internal/config"
	"github.com/ponderdome/ponderdome/internal/repository"
	"github.com/ponderdome/ponderdome/internal/services"
	"github.com/ponderdome/ponderdome/internal/workers"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.New(os.Stdout, cfg.Log.Level)
	logger.Info("Starting Ponderdome counter worker...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ActivityEvents, cfg.Kafka.GroupID)

	store := services.NewStore(repository.NewStore(db.DB))
	reconciler := services.NewCounterReconciler(store, logger)
	counterWorker := workers.NewCounterWorker(consumer, reconciler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := counterWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("Counter worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	logger.Info("Shutting down worker...")

	cancel()
	<-done

	if err := counterWorker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop counter worker")
	}

	logger.Info("Worker exited")
}
