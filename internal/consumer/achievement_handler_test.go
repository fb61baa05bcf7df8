package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/fitcoach/internal/domain"
)

type stubEvaluator struct {
	users    []string
	unlocked []domain.UserAchievement
	err      error
}

func (s *stubEvaluator) Evaluate(_ context.Context, userID string) ([]domain.UserAchievement, error) {
	s.users = append(s.users, userID)
	return s.unlocked, s.err
}

func TestAchievementHandlerEvaluatesOnTrainingEvents(t *testing.T) {
	evaluator := &stubEvaluator{unlocked: []domain.UserAchievement{{Achievement: domain.Achievement{Title: "First steps"}}}}
	handler := NewAchievementHandler(evaluator, zerolog.Nop())

	for _, eventType := range []string{"course.enrolled", "course.completed", "workout.completed"} {
		require.NoError(t, handler.Handle(context.Background(), Message{
			EventType: eventType,
			Payload:   json.RawMessage(`{"user_id":"u-1","course_id":"c-1"}`),
		}))
	}
	require.Equal(t, []string{"u-1", "u-1", "u-1"}, evaluator.users)
}

func TestAchievementHandlerIgnoresOtherEvents(t *testing.T) {
	evaluator := &stubEvaluator{}
	handler := NewAchievementHandler(evaluator, zerolog.Nop())

	require.NoError(t, handler.Handle(context.Background(), Message{EventType: "chat.message_posted", Payload: json.RawMessage(`{"user_id":"u-1"}`)}))
	require.NoError(t, handler.Handle(context.Background(), Message{EventType: "workout.completed", Payload: json.RawMessage(`{}`)}))
	require.Empty(t, evaluator.users)
}

func TestAchievementHandlerReturnsEvaluationError(t *testing.T) {
	handler := NewAchievementHandler(&stubEvaluator{err: errors.New("db down")}, zerolog.Nop())
	err := handler.Handle(context.Background(), Message{EventType: "workout.completed", Payload: json.RawMessage(`{"user_id":"u-9"}`)})
	require.ErrorContains(t, err, "evaluate achievements for u-9")
}

func TestUserIDOfReadsPayload(t *testing.T) {
	require.Equal(t, "u-3", userIDOf(Message{Payload: json.RawMessage(`{"user_id":"u-3"}`)}))
	require.Nil(t, userIDOf(Message{Payload: json.RawMessage(`{"message_id":"m"}`)}))
}
