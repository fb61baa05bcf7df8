// Package events defines the event payloads published by the coaching API and consumed downstream.
package events

import "time"

// Event type identifiers carried in the outbox and in the Kafka event_type header.
const (
	TypeUserRegistered       = "user.registered"
	TypeCourseEnrolled       = "course.enrolled"
	TypeCourseCompleted      = "course.completed"
	TypeWorkoutCompleted     = "workout.completed"
	TypeChatMessagePosted    = "chat.message_posted"
	TypeChatMessageModerated = "chat.message_moderated"
	TypeNutritionLogged      = "nutrition.logged"
	TypeAchievementUnlocked  = "achievement.unlocked"
)

// UserRegistered is emitted when an account is created by password or Google sign-in.
type UserRegistered struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Provider   string    `json:"provider"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CourseEnrolled is emitted when a user joins a course.
type CourseEnrolled struct {
	UserID     string    `json:"user_id"`
	CourseID   string    `json:"course_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CourseCompleted is emitted when a user's progress flag for a course flips to completed.
type CourseCompleted struct {
	UserID      string    `json:"user_id"`
	CourseID    string    `json:"course_id"`
	DurationDay int       `json:"duration_days"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// WorkoutCompleted is emitted when a guided workout finishes.
type WorkoutCompleted struct {
	UserID        string    `json:"user_id"`
	CourseID      string    `json:"course_id"`
	WorkoutID     string    `json:"workout_id"`
	DurationMin   int       `json:"duration_min"`
	Calories      int       `json:"calories"`
	ExerciseCount int       `json:"exercise_count"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ChatMessagePosted is emitted for each new course chat message.
type ChatMessagePosted struct {
	MessageID  string    `json:"message_id"`
	CourseID   string    `json:"course_id"`
	UserID     string    `json:"user_id"`
	Length     int       `json:"length"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ChatMessageModerated records a moderation decision.
type ChatMessageModerated struct {
	MessageID   string    `json:"message_id"`
	CourseID    string    `json:"course_id"`
	ModeratorID string    `json:"moderator_id"`
	Decision    string    `json:"decision"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NutritionLogged is emitted for each food entry.
type NutritionLogged struct {
	LogID      string    `json:"log_id"`
	UserID     string    `json:"user_id"`
	MealType   string    `json:"meal_type"`
	Calories   int       `json:"calories"`
	Date       string    `json:"date"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AchievementUnlocked is emitted once per user and achievement.
type AchievementUnlocked struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	Title         string    `json:"title"`
	OccurredAt    time.Time `json:"occurred_at"`
}
