package domain

import (
	"math"
	"time"
)

// AchievementType selects the counter an achievement is measured against.
type AchievementType string

const (
	AchievementWorkoutCount     AchievementType = "workout_count"
	AchievementCourseCompletion AchievementType = "course_completion"
	AchievementStreak           AchievementType = "streak"
	AchievementExerciseCount    AchievementType = "exercise_count"
)

// Valid reports whether t is a known achievement type.
func (t AchievementType) Valid() bool {
	switch t {
	case AchievementWorkoutCount, AchievementCourseCompletion, AchievementStreak, AchievementExerciseCount:
		return true
	}
	return false
}

// Achievement is a catalog entry.
type Achievement struct {
	ID            string
	Title         string
	Description   string
	Icon          string
	RequiredValue int
	Type          AchievementType
	CreatedAt     time.Time
}

// UserAchievement is a user's progress toward one achievement.
type UserAchievement struct {
	ID            string
	UserID        string
	AchievementID string
	Progress      int
	Completed     bool
	CompletedAt   *time.Time
	Achievement   Achievement
}

// Percent is progress relative to the requirement, rounded and capped at 100.
func (ua UserAchievement) Percent() int {
	if ua.Completed {
		return 100
	}
	if ua.Achievement.RequiredValue <= 0 {
		return 0
	}
	pct := int(math.Round(float64(ua.Progress) / float64(ua.Achievement.RequiredValue) * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// Counters are the per-user totals achievements are measured against.
type Counters struct {
	WorkoutsCompleted  int
	CoursesCompleted   int
	Streak             int
	ExercisesCompleted int
}

// Value returns the counter matching t.
func (c Counters) Value(t AchievementType) int {
	switch t {
	case AchievementWorkoutCount:
		return c.WorkoutsCompleted
	case AchievementCourseCompletion:
		return c.CoursesCompleted
	case AchievementStreak:
		return c.Streak
	case AchievementExerciseCount:
		return c.ExercisesCompleted
	}
	return 0
}

// Evaluate recomputes progress for every achievement. The unlocked slice holds only
// achievements that became completed in this evaluation; completed ones never regress.
func Evaluate(catalog []Achievement, current []UserAchievement, counters Counters, userID string, now time.Time) (updated []UserAchievement, unlocked []UserAchievement) {
	byID := make(map[string]UserAchievement, len(current))
	for _, ua := range current {
		byID[ua.AchievementID] = ua
	}

	for _, a := range catalog {
		ua, ok := byID[a.ID]
		if !ok {
			ua = UserAchievement{UserID: userID, AchievementID: a.ID}
		}
		ua.Achievement = a
		if ua.Completed {
			continue
		}
		value := counters.Value(a.Type)
		if value == ua.Progress && ok {
			continue
		}
		ua.Progress = value
		if a.RequiredValue > 0 && value >= a.RequiredValue {
			ua.Completed = true
			completedAt := now
			ua.CompletedAt = &completedAt
			unlocked = append(unlocked, ua)
		}
		updated = append(updated, ua)
	}
	return updated, unlocked
}
