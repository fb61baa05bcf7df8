package domain

import (
	"context"
	"time"
)

// Lookups return (nil, nil) when the row does not exist; services translate that to ErrNotFound.

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, string, error)
	UpsertOAuthUser(ctx context.Context, user User) (*User, bool, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate, now time.Time) (*User, error)
	UpdateUserByAdmin(ctx context.Context, id string, update AdminUserUpdate, now time.Time) (*User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetPasswordHash(ctx context.Context, id, hash string, now time.Time) error
	SetOnboardingSeen(ctx context.Context, id string, seen bool, now time.Time) error
	GetAuthors(ctx context.Context, ids []string) (map[string]Author, error)
}

// ResetToken is a stored password reset request. Only the hash of the token is persisted.
type ResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ResetTokenRepository persists password reset tokens.
type ResetTokenRepository interface {
	CreateResetToken(ctx context.Context, token ResetToken) error
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error)
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// CourseRepository persists the catalog.
type CourseRepository interface {
	ListCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id string) (*Course, error)
	CreateCourse(ctx context.Context, course Course) error
	UpdateCourse(ctx context.Context, course Course) error
	DeleteCourse(ctx context.Context, id string) (bool, error)
	GetCourseWorkout(ctx context.Context, courseID string) (*Workout, error)
	GetWorkout(ctx context.Context, id string) (*Workout, error)
	CreateWorkout(ctx context.Context, workout Workout) error
	ListExercises(ctx context.Context, workoutID string) ([]Exercise, error)
	CreateExercise(ctx context.Context, exercise Exercise) error
	EnrollmentCount(ctx context.Context, courseID string) (int, error)
}

// FavoriteRepository persists course bookmarks.
type FavoriteRepository interface {
	AddFavorite(ctx context.Context, userID, courseID string, now time.Time) error
	RemoveFavorite(ctx context.Context, userID, courseID string) error
	IsFavorite(ctx context.Context, userID, courseID string) (bool, error)
	ListFavoriteCourseIDs(ctx context.Context, userID string) ([]string, error)
}

// RatingRepository persists course ratings and their aggregates.
type RatingRepository interface {
	UpsertRating(ctx context.Context, rating Rating) (RatingSummary, error)
	RecomputeRatings(ctx context.Context) (int64, error)
}

// ProgressRepository persists enrollment and course progress.
type ProgressRepository interface {
	Enroll(ctx context.Context, userID, courseID string, now time.Time) error
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
	GetProgress(ctx context.Context, userID, courseID string) (*Progress, error)
	SetCompleted(ctx context.Context, userID, courseID string, completed bool, now time.Time) (*Progress, error)
	RecordWorkoutCompletion(ctx context.Context, completion WorkoutCompletion) (*Progress, error)
	ListProgress(ctx context.Context, userID string) ([]Progress, error)
	ListCompletions(ctx context.Context, userID string, since time.Time) ([]WorkoutCompletion, error)
}

// ChatRepository persists course chat.
type ChatRepository interface {
	ListMessages(ctx context.Context, courseID string, before *Cursor, limit int) ([]ChatMessage, *Cursor, error)
	CreateMessage(ctx context.Context, message ChatMessage) error
	GetMessage(ctx context.Context, id string) (*ChatMessage, error)
	ListAllMessages(ctx context.Context) ([]ChatMessage, error)
	ApproveMessage(ctx context.Context, id, moderatorID string, now time.Time) (bool, error)
	DeleteMessage(ctx context.Context, id, moderatorID string, now time.Time) (bool, error)
}

// NutritionRepository persists food logs.
type NutritionRepository interface {
	AddLog(ctx context.Context, log NutritionLog) error
	ListLogs(ctx context.Context, userID, date string) ([]NutritionLog, error)
	DeleteLog(ctx context.Context, userID, id string) (bool, error)
}

// AchievementRepository persists the achievement catalog and per-user progress.
type AchievementRepository interface {
	ListAchievements(ctx context.Context) ([]Achievement, error)
	UpsertAchievement(ctx context.Context, achievement Achievement) error
	ListUserAchievements(ctx context.Context, userID string) ([]UserAchievement, error)
	SaveUserAchievements(ctx context.Context, userID string, updated []UserAchievement, unlocked []UserAchievement, now time.Time) error
}
