// Command simulator publishes synthetic sensor events to Kafka for local
// development: room entries plus eat/excrete/sleep episodes for a small
// roster of cats.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/petwatch/internal/config"
	"example.com/petwatch/internal/events"
)

var (
	cats  = []string{"Tom", "Mimi", "Luna", "Biscuit"}
	rooms = []string{"garden", "garage", "kitchen", "hall"}
)

func main() {
	interval := flag.Duration("interval", 5*time.Second, "delay between published events")
	flag.Parse()

	cfg := config.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	activityWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    events.TopicActivity,
		Balancer: &kafka.Hash{},
	}
	movementWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    events.TopicMovement,
		Balancer: &kafka.Hash{},
	}
	defer activityWriter.Close()
	defer movementWriter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdownCh
		cancel()
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	logger.Info("simulator publishing", zap.Strings("brokers", cfg.KafkaBrokers))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cat := cats[rand.Intn(len(cats))]
		if rand.Intn(3) == 0 {
			if err := publishMovement(ctx, movementWriter, cat); err != nil {
				logger.Error("publish movement failed", zap.Error(err))
			}
		} else {
			if err := publishActivity(ctx, activityWriter, cat); err != nil {
				logger.Error("publish activity failed", zap.Error(err))
			}
		}
	}
}

func publishActivity(ctx context.Context, writer *kafka.Writer, cat string) error {
	types := []string{"eat", "excrete", "sleep"}
	activityType := types[rand.Intn(len(types))]

	now := time.Now().UTC()
	event := events.ActivityRecorded{
		EventID:      uuid.NewString(),
		CatName:      cat,
		ActivityType: activityType,
		StartTime:    now,
	}
	if activityType == "sleep" {
		minutes := rand.Intn(120)
		end := now.Add(time.Duration(minutes) * time.Minute)
		event.DurationMinutes = &minutes
		event.EndTime = &end
	}

	return writeJSON(ctx, writer, cat, events.TypeActivityRecorded, event)
}

func publishMovement(ctx context.Context, writer *kafka.Writer, cat string) error {
	event := events.RoomEntered{
		EventID:   uuid.NewString(),
		CatName:   cat,
		RoomName:  rooms[rand.Intn(len(rooms))],
		EnterTime: time.Now().UTC(),
	}
	return writeJSON(ctx, writer, cat, events.TypeRoomEntered, event)
}

func writeJSON(ctx context.Context, writer *kafka.Writer, key, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
}
