// Package postgres provides pgx-backed repositories. Every write that other services care
// about records an outbox event inside the same transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	platformevents "example.com/fitcoach/pkg/platform/events"
)

// Store implements the domain repositories on Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool for components sharing the database.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	AggregateType  string
	PartitionKeyFn func(outboxEvent) string
}

// outboxEvent is one event recorded alongside a write.
type outboxEvent struct {
	EventType   string
	AggregateID string
	UserID      string
	DedupeKey   string
	Payload     any
}

func byUser(e outboxEvent) string      { return e.UserID }
func byAggregate(e outboxEvent) string { return e.AggregateID }

var eventCatalog = map[string]EventMetadata{
	platformevents.TypeUserRegistered: {
		Topic:          "coaching_user_events",
		SchemaSubject:  "coaching_user_events-value",
		AggregateType:  "user",
		PartitionKeyFn: byUser,
	},
	platformevents.TypeCourseEnrolled: {
		Topic:          "coaching_course_events",
		SchemaSubject:  "coaching_course_events-value",
		AggregateType:  "course",
		PartitionKeyFn: byUser,
	},
	platformevents.TypeCourseCompleted: {
		Topic:          "coaching_course_events",
		SchemaSubject:  "coaching_course_events-value",
		AggregateType:  "course",
		PartitionKeyFn: byUser,
	},
	platformevents.TypeWorkoutCompleted: {
		Topic:          "coaching_workout_events",
		SchemaSubject:  "coaching_workout_events-value",
		AggregateType:  "workout",
		PartitionKeyFn: byUser,
	},
	platformevents.TypeChatMessagePosted: {
		Topic:          "coaching_chat_events",
		SchemaSubject:  "coaching_chat_events-value",
		AggregateType:  "chat_message",
		PartitionKeyFn: byAggregate,
	},
	platformevents.TypeChatMessageModerated: {
		Topic:          "coaching_chat_events",
		SchemaSubject:  "coaching_chat_events-value",
		AggregateType:  "chat_message",
		PartitionKeyFn: byAggregate,
	},
	platformevents.TypeNutritionLogged: {
		Topic:          "coaching_nutrition_events",
		SchemaSubject:  "coaching_nutrition_events-value",
		AggregateType:  "nutrition_log",
		PartitionKeyFn: byUser,
	},
	platformevents.TypeAchievementUnlocked: {
		Topic:          "coaching_achievement_events",
		SchemaSubject:  "coaching_achievement_events-value",
		AggregateType:  "achievement",
		PartitionKeyFn: byUser,
	},
}

func insertOutbox(ctx context.Context, tx pgx.Tx, event outboxEvent) error {
	meta, ok := eventCatalog[event.EventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", event.EventType)
	}
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		meta.AggregateType,
		event.AggregateID,
		event.EventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(event),
		body,
		nullIfEmpty(event.DedupeKey),
	)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}
