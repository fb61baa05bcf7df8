package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NutritionService handles food logs and recommendations.
type NutritionService struct {
	logs  NutritionRepository
	users UserRepository
}

// NewNutritionService constructs a NutritionService.
func NewNutritionService(logs NutritionRepository, users UserRepository) *NutritionService {
	return &NutritionService{logs: logs, users: users}
}

// AddLog stores a food entry. An empty date means today (UTC).
func (s *NutritionService) AddLog(ctx context.Context, entry NutritionLog) (*NutritionLog, error) {
	entry.FoodName = strings.TrimSpace(entry.FoodName)
	now := time.Now().UTC()
	if entry.Date == "" {
		entry.Date = now.Format(DateLayout)
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = now
	if err := s.logs.AddLog(ctx, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Day returns the summary of one day's logs. An empty date means today (UTC).
func (s *NutritionService) Day(ctx context.Context, userID, date string) (DailySummary, error) {
	if date == "" {
		date = time.Now().UTC().Format(DateLayout)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return DailySummary{}, invalid("date", "must be YYYY-MM-DD")
	}
	logs, err := s.logs.ListLogs(ctx, userID, date)
	if err != nil {
		return DailySummary{}, err
	}
	return Summarize(date, logs), nil
}

// DeleteLog removes one of the user's own entries.
func (s *NutritionService) DeleteLog(ctx context.Context, userID, id string) error {
	deleted, err := s.logs.DeleteLog(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Recommend builds recommendations from the user's goal, weight and height.
func (s *NutritionService) Recommend(ctx context.Context, userID string) (Recommendation, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return Recommendation{}, err
	}
	if user == nil {
		return Recommendation{}, ErrNotFound
	}
	var goal string
	var weight, height float64
	if user.Goal != nil {
		goal = *user.Goal
	}
	if user.Weight != nil {
		weight = *user.Weight
	}
	if user.Height != nil {
		height = *user.Height
	}
	return Recommend(goal, weight, height), nil
}
