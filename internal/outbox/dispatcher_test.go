package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	platformevents "example.com/fitcoach/pkg/platform/events"
)

type stubProducer struct {
	mu     sync.Mutex
	err    error
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type stubRegistry struct {
	mu    sync.Mutex
	id    int
	err   error
	calls []string
}

func (s *stubRegistry) EnsureSchema(ctx context.Context, subject string, schema string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, subject)
	if s.err != nil {
		return 0, s.err
	}
	return s.id, nil
}

func workoutMessage(id int64) Message {
	return Message{
		EventID:       id,
		AggregateType: "workout",
		AggregateID:   "w-1",
		EventType:     platformevents.TypeWorkoutCompleted,
		Topic:         "coaching_workout_events",
		SchemaSubject: "coaching_workout_events-value",
		PartitionKey:  "user-1",
		Payload:       json.RawMessage(`{"user_id":"user-1"}`),
	}
}

func TestDeliverFramesPayloadAndSetsHeaders(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	d := NewDispatcher(nil, producer, registry, 0, 10)

	require.NoError(t, d.deliver(context.Background(), []Message{workoutMessage(1), workoutMessage(2)}))

	require.Len(t, producer.writes, 1)
	batch := producer.writes[0]
	require.Equal(t, "coaching_workout_events", batch.topic)
	require.Len(t, batch.messages, 2)
	require.Len(t, registry.calls, 1, "schema id is cached across the batch")

	record := batch.messages[0]
	require.Equal(t, []byte("user-1"), record.Key)
	require.Equal(t, byte(0), record.Value[0])
	require.Equal(t, uint32(42), binary.BigEndian.Uint32(record.Value[1:5]))
	require.JSONEq(t, `{"user_id":"user-1"}`, string(record.Value[5:]))

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, platformevents.TypeWorkoutCompleted, headers["event_type"])
	require.Equal(t, "coaching_workout_events-value", headers["schema_subject"])
	require.Equal(t, "workout", headers["aggregate_type"])
}

func TestDeliverRejectsUnknownEventType(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 1}
	d := NewDispatcher(nil, producer, registry, 0, 10)

	msg := workoutMessage(1)
	msg.EventType = "workout.unknown"
	err := d.deliver(context.Background(), []Message{msg})
	require.ErrorContains(t, err, "no schema metadata for event_type=workout.unknown")
	require.Empty(t, producer.writes)
	require.Empty(t, registry.calls)
}

func TestDeliverPropagatesWriterError(t *testing.T) {
	producer := &stubProducer{err: errors.New("kafka write failed")}
	d := NewDispatcher(nil, producer, &stubRegistry{id: 3}, 0, 10)
	require.EqualError(t, d.deliver(context.Background(), []Message{workoutMessage(1)}), "kafka write failed")
}

func TestEveryOutboxEventTypeHasSchema(t *testing.T) {
	for _, eventType := range []string{
		platformevents.TypeUserRegistered,
		platformevents.TypeCourseEnrolled,
		platformevents.TypeCourseCompleted,
		platformevents.TypeWorkoutCompleted,
		platformevents.TypeChatMessagePosted,
		platformevents.TypeChatMessageModerated,
		platformevents.TypeNutritionLogged,
		platformevents.TypeAchievementUnlocked,
	} {
		entry, ok := schemaCatalog[eventType]
		require.Truef(t, ok, "missing schema for %s", eventType)
		require.True(t, json.Valid([]byte(entry.Schema)), eventType)
	}
}

func TestBackoffDelayIsCapped(t *testing.T) {
	const minute = time.Minute
	m := &DLQManager{baseDelay: minute}
	require.Equal(t, minute, m.backoffDelay(1))
	require.Equal(t, 4*minute, m.backoffDelay(3))
	require.Equal(t, 60*minute, m.backoffDelay(10))
	require.Equal(t, 60*minute, m.backoffDelay(100))
}

func TestSchemaRegistryClientRegistersSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/subjects/coaching_user_events-value/versions", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "JSON", body["schemaType"])
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL+"/").EnsureSchema(context.Background(), "coaching_user_events-value", userEventsSchema)
	require.NoError(t, err)
	require.Equal(t, 7, id)
}

func TestSchemaRegistryClientFallsBackToLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error_code":409}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":11,"version":3}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "coaching_chat_events-value", chatEventsSchema)
	require.NoError(t, err)
	require.Equal(t, 11, id)
}

func TestKafkaProducerRejectsMissingTopic(t *testing.T) {
	producer := NewKafkaProducer([]string{"localhost:9092"})
	defer producer.Close()

	err := producer.WriteMessages(context.Background(), "", kafka.Message{Value: []byte("{}")})
	require.ErrorIs(t, err, ErrNoTopic)
	require.NoError(t, producer.WriteMessages(context.Background(), "coaching_workout_events"))
	require.Empty(t, producer.writers)
}

func TestTruncateReasonKeepsRunesWhole(t *testing.T) {
	require.Equal(t, "kafka down", truncateReason("kafka down"))

	long := strings.Repeat("ошибка ", 200)
	got := truncateReason(long)
	require.LessOrEqual(t, len(got), maxReasonLen)
	require.True(t, utf8.ValidString(got))
	require.True(t, strings.HasPrefix(long, got))
}
