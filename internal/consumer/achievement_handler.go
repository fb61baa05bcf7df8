package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"example.com/fitcoach/internal/domain"
	platformevents "example.com/fitcoach/pkg/platform/events"
)

// AchievementEvaluator recomputes a user's achievement progress.
type AchievementEvaluator interface {
	Evaluate(ctx context.Context, userID string) ([]domain.UserAchievement, error)
}

// AchievementHandler re-evaluates achievements whenever a user's training counters can change.
type AchievementHandler struct {
	evaluator AchievementEvaluator
	logger    zerolog.Logger
}

// NewAchievementHandler constructs an AchievementHandler.
func NewAchievementHandler(evaluator AchievementEvaluator, logger zerolog.Logger) *AchievementHandler {
	return &AchievementHandler{evaluator: evaluator, logger: logger}
}

var achievementTriggers = map[string]struct{}{
	platformevents.TypeCourseEnrolled:   {},
	platformevents.TypeCourseCompleted:  {},
	platformevents.TypeWorkoutCompleted: {},
}

// Handle ignores unrelated event types.
func (h *AchievementHandler) Handle(ctx context.Context, msg Message) error {
	if _, ok := achievementTriggers[msg.EventType]; !ok {
		return nil
	}

	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
	}
	if payload.UserID == "" {
		return nil
	}

	unlocked, err := h.evaluator.Evaluate(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("evaluate achievements for %s: %w", payload.UserID, err)
	}
	for _, ua := range unlocked {
		achievementsUnlockedCounter.Inc()
		h.logger.Info().Str("user_id", payload.UserID).Str("achievement", ua.Achievement.Title).Msg("achievement unlocked")
	}
	return nil
}
