package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func framed(schemaID uint32, payload []byte) []byte {
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], schemaID)
	copy(value[5:], payload)
	return value
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	payload := []byte(`{"user_id":"u-1","course_id":"c-1"}`)
	msg := kafka.Message{
		Topic:     "coaching_course_events",
		Partition: 0,
		Offset:    10,
		Time:      time.Now().UTC(),
		Key:       []byte("u-1"),
		Value:     framed(42, payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("course.enrolled")},
			{Key: "schema_subject", Value: []byte("coaching_course_events-value")},
			{Key: "aggregate_type", Value: []byte("course")},
			{Key: "aggregate_id", Value: []byte("c-1")},
		},
	}

	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(zerolog.New(zerolog.NewTestWriter(t))))
	require.ErrorIs(t, processor.Run(context.Background()), context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, "course.enrolled", handler.last.EventType)
	require.Equal(t, "coaching_course_events-value", handler.last.SchemaSubject)
	require.Equal(t, "course", handler.last.AggregateType)
	require.Equal(t, "c-1", handler.last.AggregateID)
	require.Equal(t, 42, handler.last.SchemaID)
	require.Equal(t, "coaching_course_events:0:10", handler.last.EventKey())
	require.JSONEq(t, string(payload), string(handler.last.Payload))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	msg := kafka.Message{
		Topic:   "coaching_workout_events",
		Offset:  20,
		Value:   framed(99, []byte(`{"user_id":"u-2"}`)),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("workout.completed")}},
	}

	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{err: errors.New("boom")}

	processor := NewProcessor(reader, handler, WithLogger(zerolog.New(zerolog.NewTestWriter(t))))
	require.ErrorIs(t, processor.Run(context.Background()), context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		{Topic: "coaching_user_events", Value: []byte{0, 1}},
		{Topic: "coaching_user_events", Value: framed(1, []byte(`{}`))},
		{Topic: "coaching_user_events", Value: framed(1, []byte(`not json`)), Headers: []kafka.Header{{Key: "event_type", Value: []byte("user.registered")}}},
	}}
	handler := &stubHandler{}

	require.ErrorIs(t, NewProcessor(reader, handler).Run(context.Background()), context.Canceled)
	require.Zero(t, handler.calls)
	require.Equal(t, 3, reader.commitCalls)
}

func TestProcessorStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := &stubReader{}
	require.ErrorIs(t, NewProcessor(reader, &stubHandler{}).Run(ctx), context.Canceled)
	require.Zero(t, reader.index)
}

func TestFanOutStopsAtFirstError(t *testing.T) {
	first := &stubHandler{}
	failing := &stubHandler{err: errors.New("down")}
	last := &stubHandler{}

	err := FanOut{first, failing, last}.Handle(context.Background(), Message{EventType: "x"})
	require.EqualError(t, err, "down")
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, failing.calls)
	require.Zero(t, last.calls)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
