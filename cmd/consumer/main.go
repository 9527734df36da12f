package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/petwatch/internal/config"
	"example.com/petwatch/internal/consumer"
	"example.com/petwatch/internal/events"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	handler := consumer.NewIngestHandler(pool, logger)

	var wg sync.WaitGroup
	for _, topic := range []string{events.TopicActivity, events.TopicMovement} {
		topic := topic
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.ConsumerGroup,
			Topic:   topic,
		})
		processor := consumer.NewProcessor(reader, handler, logger.With(zap.String("topic", topic)))

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer reader.Close()
			if err := processor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("processor stopped", zap.String("topic", topic), zap.Error(err))
			}
		}()
	}

	// Metrics endpoint for the consumer binary.
	metricsServer := &http.Server{Addr: ":9090", Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownCh

	cancel()
	_ = metricsServer.Close()
	wg.Wait()
}
