package jobs

import (
	"context"
	"time"
)

// Job names.
const (
	JobPurgeResetTokens = "purge_reset_tokens"
	JobRecomputeRatings = "recompute_ratings"
)

// ResetTokenPurger deletes expired password reset tokens.
type ResetTokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}

// RatingRecomputer rebuilds course rating aggregates.
type RatingRecomputer interface {
	RecomputeRatings(ctx context.Context) (int64, error)
}

// Schedules configures when each maintenance job fires.
type Schedules struct {
	PurgeResetTokens string
	RecomputeRatings string
}

// RegisterMaintenance adds the reset-token purge and the rating recompute jobs to s.
func RegisterMaintenance(s *Scheduler, schedules Schedules, accounts ResetTokenPurger, ratings RatingRecomputer) error {
	if schedules.PurgeResetTokens == "" {
		schedules.PurgeResetTokens = "@hourly"
	}
	if schedules.RecomputeRatings == "" {
		schedules.RecomputeRatings = "0 3 * * *"
	}
	if err := s.Add(JobPurgeResetTokens, schedules.PurgeResetTokens, accounts.PurgeExpiredResetTokens); err != nil {
		return err
	}
	return s.Add(JobRecomputeRatings, schedules.RecomputeRatings, ratings.RecomputeRatings)
}

// Every returns a cron descriptor for a fixed interval.
func Every(d time.Duration) string {
	return "@every " + d.String()
}
