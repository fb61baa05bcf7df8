package domain

import (
	"context"
	"time"
)

// AchievementService reports and evaluates achievements.
type AchievementService struct {
	achievements AchievementRepository
	progress     ProgressRepository
}

// NewAchievementService constructs an AchievementService.
func NewAchievementService(achievements AchievementRepository, progress ProgressRepository) *AchievementService {
	return &AchievementService{achievements: achievements, progress: progress}
}

// ForUser returns every catalog achievement with the user's progress, zero when untouched.
func (s *AchievementService) ForUser(ctx context.Context, userID string) ([]UserAchievement, error) {
	catalog, err := s.achievements.ListAchievements(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]UserAchievement, len(earned))
	for _, ua := range earned {
		byID[ua.AchievementID] = ua
	}
	out := make([]UserAchievement, 0, len(catalog))
	for _, a := range catalog {
		ua, ok := byID[a.ID]
		if !ok {
			ua = UserAchievement{UserID: userID, AchievementID: a.ID}
		}
		ua.Achievement = a
		out = append(out, ua)
	}
	return out, nil
}

// Evaluate recomputes the user's achievement progress and returns newly unlocked achievements.
func (s *AchievementService) Evaluate(ctx context.Context, userID string) ([]UserAchievement, error) {
	catalog, err := s.achievements.ListAchievements(ctx)
	if err != nil {
		return nil, err
	}
	current, err := s.achievements.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, unlocked := Evaluate(catalog, current, CountersFor(rows), userID, now)
	if len(updated) == 0 {
		return nil, nil
	}
	if err := s.achievements.SaveUserAchievements(ctx, userID, updated, unlocked, now); err != nil {
		return nil, err
	}
	return unlocked, nil
}
