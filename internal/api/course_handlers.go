package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/observability"
)

// RateCourseRequest is the payload for POST /v1/courses/{id}/ratings.
type RateCourseRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Validate ensures request correctness.
func (r RateCourseRequest) Validate() error {
	if r.Score < 1 || r.Score > 5 {
		return errors.New("score must be between 1 and 5")
	}
	return nil
}

// UpdateProgressRequest is the payload for PATCH /v1/courses/{id}/progress.
type UpdateProgressRequest struct {
	Completed *bool `json:"completed"`
}

// Validate ensures request correctness.
func (r UpdateProgressRequest) Validate() error {
	if r.Completed == nil {
		return errors.New("completed is required")
	}
	return nil
}

func courseFilterFrom(r *http.Request) domain.CourseFilter {
	q := r.URL.Query()
	return domain.CourseFilter{
		Search:   q.Get("search"),
		Level:    domain.Level(strings.ToLower(q.Get("level"))),
		Duration: domain.DurationBucket(strings.ToLower(q.Get("duration"))),
	}
}

// listCourses serves the public catalog. Admins may pass include_inactive=true.
func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	f := courseFilterFrom(r)
	if f.Level != "" && !f.Level.Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", "level must be beginner, intermediate or advanced")
		return
	}
	switch f.Duration {
	case "", domain.DurationShort, domain.DurationMedium, domain.DurationLong:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "duration must be short, medium or long")
		return
	}
	includeInactive := viewerIsAdmin(r) && queryBool(r, "include_inactive")

	views, err := h.Catalog.ListCourses(r.Context(), viewerID(r), includeInactive, f)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toCourseViews(views)})
}

func (h *Handler) getCourse(w http.ResponseWriter, r *http.Request) {
	view, err := h.Catalog.GetCourse(r.Context(), viewerID(r), chi.URLParam(r, "courseID"), viewerIsAdmin(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseView(view.Course, view.IsFavorite))
}

func (h *Handler) getCourseWorkout(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Catalog.CourseWorkout(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanView(*plan))
}

func (h *Handler) getWorkout(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Catalog.WorkoutPlan(r.Context(), chi.URLParam(r, "workoutID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanView(*plan))
}

func (h *Handler) getEnrollmentCount(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	count, err := h.Catalog.EnrollmentCount(r.Context(), courseID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"course_id": courseID, "count": count})
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	views, err := h.Catalog.ListFavorites(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toCourseViews(views)})
}

func (h *Handler) getFavorite(w http.ResponseWriter, r *http.Request) {
	fav, err := h.Catalog.IsFavorite(r.Context(), currentUser(r).ID, chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": fav})
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.AddFavorite(r.Context(), currentUser(r).ID, chi.URLParam(r, "courseID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": true})
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.RemoveFavorite(r.Context(), currentUser(r).ID, chi.URLParam(r, "courseID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": false})
}

func (h *Handler) rateCourse(w http.ResponseWriter, r *http.Request) {
	var req RateCourseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	summary, err := h.Catalog.Rate(r.Context(), domain.Rating{
		UserID:   currentUser(r).ID,
		CourseID: chi.URLParam(r, "courseID"),
		Score:    req.Score,
		Comment:  req.Comment,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionRated)
	writeJSON(w, http.StatusOK, map[string]any{"avg_rating": summary.AvgRating, "ratings_count": summary.RatingsCount})
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	progress, err := h.Progress.Enroll(r.Context(), currentUser(r).ID, chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionEnroll)
	writeJSON(w, http.StatusCreated, toProgressView(*progress))
}

func (h *Handler) getEnrollment(w http.ResponseWriter, r *http.Request) {
	enrolled, err := h.Progress.IsEnrolled(r.Context(), currentUser(r).ID, chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enrolled": enrolled})
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.Progress.Progress(r.Context(), currentUser(r).ID, chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressView(*progress))
}

func (h *Handler) updateProgress(w http.ResponseWriter, r *http.Request) {
	var req UpdateProgressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	progress, err := h.Progress.SetCompleted(r.Context(), currentUser(r).ID, chi.URLParam(r, "courseID"), *req.Completed)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if progress.Completed {
		observability.RecordAction(observability.ActionCourseCompleted)
	}
	writeJSON(w, http.StatusOK, toProgressView(*progress))
}
