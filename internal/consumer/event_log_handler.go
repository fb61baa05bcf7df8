package consumer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tidwall/gjson"
)

// EventLogHandler writes consumed events into coaching_event_log for auditing. Redelivered
// records are ignored by event key.
type EventLogHandler struct {
	pool *pgxpool.Pool
}

// NewEventLogHandler constructs a handler backed by the provided pool.
func NewEventLogHandler(pool *pgxpool.Pool) *EventLogHandler {
	return &EventLogHandler{pool: pool}
}

// Handle stores the event payload.
func (h *EventLogHandler) Handle(ctx context.Context, msg Message) error {
	received := msg.Timestamp
	if received.IsZero() {
		received = time.Now().UTC()
	}
	_, err := h.pool.Exec(ctx,
		`INSERT INTO coaching_event_log (event_key, event_type, topic, kafka_partition, kafka_offset, user_id, schema_id, schema_subject, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
         ON CONFLICT (event_key) DO NOTHING`,
		msg.EventKey(),
		msg.EventType,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		userIDOf(msg),
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Payload,
		received,
	)
	return err
}

// userIDOf returns the acting user recorded in the payload, or nil for events without one.
func userIDOf(msg Message) any {
	if id := gjson.GetBytes(msg.Payload, "user_id").String(); id != "" {
		return id
	}
	return nil
}
