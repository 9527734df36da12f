package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"example.com/petwatch/internal/domain"
	"example.com/petwatch/internal/events"
	"example.com/petwatch/internal/observability"
)

// IngestHandler writes consumed sensor events into the activity and movement
// logs. Inserts are keyed by event id so Kafka redelivery is idempotent.
type IngestHandler struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewIngestHandler constructs a handler backed by the provided pool.
func NewIngestHandler(pool *pgxpool.Pool, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{pool: pool, logger: logger}
}

// Handle dispatches on the event type. Unknown types are logged and dropped
// so they do not wedge the partition.
func (h *IngestHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeActivityRecorded:
		var event events.ActivityRecorded
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("unmarshal activity event: %w", err)
		}
		return h.handleActivity(ctx, event)
	case events.TypeRoomEntered:
		var event events.RoomEntered
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("unmarshal movement event: %w", err)
		}
		return h.handleMovement(ctx, event)
	default:
		h.logger.Warn("dropping unknown event type", zap.String("event_type", msg.EventType))
		return nil
	}
}

func (h *IngestHandler) handleActivity(ctx context.Context, event events.ActivityRecorded) error {
	if err := validateActivity(event); err != nil {
		return err
	}

	tag, err := h.pool.Exec(ctx,
		`INSERT INTO cat_activities (id, cat_name, activity_type, start_time, end_time, duration_minutes)
         VALUES ($1, $2, $3, $4, $5, $6)
         ON CONFLICT (id) DO NOTHING`,
		event.EventID,
		event.CatName,
		event.ActivityType,
		event.StartTime.UTC(),
		utcOrNil(event.EndTime),
		event.DurationMinutes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		observability.RecordActivityPersisted(event.StartTime)
	}
	return nil
}

// handleMovement records a room entry and closes the cat's previous open
// interval. The close-out only runs when the insert actually happened, so a
// redelivered event cannot close the row it created itself.
func (h *IngestHandler) handleMovement(ctx context.Context, event events.RoomEntered) error {
	if event.CatName == "" || event.RoomName == "" {
		return fmt.Errorf("movement event %s missing cat or room", event.EventID)
	}

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO cat_movements (event_id, cat_name, room_name, enter_time)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (event_id) DO NOTHING`,
		event.EventID,
		event.CatName,
		event.RoomName,
		event.EnterTime.UTC(),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE cat_movements SET exit_time=$1
             WHERE cat_name=$2 AND exit_time IS NULL AND event_id <> $3`,
			event.EnterTime.UTC(),
			event.CatName,
			event.EventID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func validateActivity(event events.ActivityRecorded) error {
	if event.CatName == "" {
		return fmt.Errorf("activity event %s missing cat", event.EventID)
	}
	switch event.ActivityType {
	case domain.ActivityEat, domain.ActivityExcrete, domain.ActivitySleep:
	default:
		return fmt.Errorf("activity event %s has unknown type %q", event.EventID, event.ActivityType)
	}
	if event.StartTime.IsZero() {
		return fmt.Errorf("activity event %s missing start time", event.EventID)
	}
	return nil
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
