package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"todo-api/internal/config"
	"todo-api/internal/models"
	"todo-api/internal/queue"
	"todo-api/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Invalidator drops derived per-user state after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string)
}

var errMissingUser = errors.New("event has no user_id")

// Run starts the Kafka consumer: reads todo events and invalidates the owner's cached stats.
// One consumer per process; scale by running more replicas (consumer group shares partitions).
func Run(ctx context.Context, inv Invalidator) {
	cfg := config.Get()
	brokers := queue.Brokers()
	if len(brokers) == 0 {
		logger.Info(ctx, "Worker disabled (no Kafka brokers)")
		return
	}
	topic := queue.Topic()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	var processed int64
	logger.Info(ctx, "Kafka consumer started", "topic", topic, "group", cfg.KafkaGroupID)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Kafka consumer stopped", "processed", atomic.LoadInt64(&processed))
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, inv, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid poison pill blocking the partition
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
		atomic.AddInt64(&processed, 1)
	}
}

func handleMessage(ctx context.Context, inv Invalidator, payload []byte) error {
	var ev models.TodoEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if ev.UserID == "" {
		return errMissingUser
	}
	inv.Invalidate(ctx, ev.UserID)
	logger.Debug(ctx, "Todo event applied", "action", ev.Action, "user_id", ev.UserID, "count", ev.Count)
	return nil
}
