package api

import (
	"errors"
	"net/http"
	"time"

	"example.com/fitcoach/internal/domain"
)

// UpdateProfileRequest is the payload for PATCH /v1/me. Omitted fields are kept.
type UpdateProfileRequest struct {
	Username  *string  `json:"username"`
	FullName  *string  `json:"full_name"`
	AvatarURL *string  `json:"avatar_url"`
	Weight    *float64 `json:"weight"`
	Height    *float64 `json:"height"`
	Goal      *string  `json:"goal"`
}

// Validate ensures request correctness.
func (r UpdateProfileRequest) Validate() error {
	if r.Username == nil && r.FullName == nil && r.AvatarURL == nil && r.Weight == nil && r.Height == nil && r.Goal == nil {
		return errors.New("at least one field is required")
	}
	return nil
}

// OnboardingRequest is the payload for PUT /v1/me/onboarding.
type OnboardingRequest struct {
	HasSeenOnboarding *bool `json:"has_seen_onboarding"`
}

// Validate ensures request correctness.
func (r OnboardingRequest) Validate() error {
	if r.HasSeenOnboarding == nil {
		return errors.New("has_seen_onboarding is required")
	}
	return nil
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserView(*currentUser(r)))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.Accounts.UpdateProfile(r.Context(), currentUser(r).ID, domain.ProfileUpdate{
		Username:  req.Username,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		Weight:    req.Weight,
		Height:    req.Height,
		Goal:      req.Goal,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) getOnboarding(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"has_seen_onboarding": currentUser(r).HasSeenOnboarding})
}

func (h *Handler) putOnboarding(w http.ResponseWriter, r *http.Request) {
	var req OnboardingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Accounts.SetOnboardingSeen(r.Context(), currentUser(r).ID, *req.HasSeenOnboarding); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_seen_onboarding": *req.HasSeenOnboarding})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsView{
		TotalWorkouts:    stats.TotalWorkouts,
		TotalTime:        stats.TotalTime,
		CurrentStreak:    stats.CurrentStreak,
		Achievements:     stats.Achievements,
		CompletedCourses: stats.CompletedCourses,
		ActiveDays:       stats.ActiveDays,
	})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	days, err := h.Stats.WeeklyActivity(r.Context(), currentUser(r).ID, time.Now())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]ActivityDayView, 0, len(days))
	for _, d := range days {
		out = append(out, ActivityDayView{Day: d.Day, Date: d.Date, Minutes: d.Minutes})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": out})
}

func (h *Handler) getCurrentWorkout(w http.ResponseWriter, r *http.Request) {
	current, err := h.Progress.CurrentWorkout(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if current == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, CurrentWorkoutView{
		Progress: toProgressView(current.Progress),
		Course:   toCourseView(current.Course, false),
		Workout:  toWorkoutView(current.Workout),
	})
}

func (h *Handler) getAchievements(w http.ResponseWriter, r *http.Request) {
	items, err := h.Achievements.ForUser(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]AchievementView, 0, len(items))
	completed := 0
	for _, ua := range items {
		if ua.Completed {
			completed++
		}
		out = append(out, toAchievementView(ua))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "completed": completed, "total": len(out)})
}
