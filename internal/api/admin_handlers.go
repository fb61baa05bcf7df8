package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"example.com/fitcoach/internal/domain"
)

// AdminUserUpdateRequest is the payload for PATCH /v1/admin/users/{id}.
type AdminUserUpdateRequest struct {
	Username  *string `json:"username"`
	FullName  *string `json:"full_name"`
	Role      *string `json:"role"`
	IsBlocked *bool   `json:"is_blocked"`
}

// Validate ensures request correctness.
func (r AdminUserUpdateRequest) Validate() error {
	if r.Username == nil && r.FullName == nil && r.Role == nil && r.IsBlocked == nil {
		return errors.New("at least one field is required")
	}
	return nil
}

// SetRoleRequest is the payload for PUT /v1/admin/users/{id}/role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// Validate ensures request correctness.
func (r SetRoleRequest) Validate() error {
	if !domain.Role(r.Role).Valid() {
		return errors.New("role must be user, moderator or admin")
	}
	return nil
}

// SetBlockedRequest is the payload for PUT /v1/admin/users/{id}/block.
type SetBlockedRequest struct {
	Blocked *bool `json:"blocked"`
}

// Validate ensures request correctness.
func (r SetBlockedRequest) Validate() error {
	if r.Blocked == nil {
		return errors.New("blocked is required")
	}
	return nil
}

// CourseRequest is the payload for POST /v1/admin/courses.
type CourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Level       string `json:"level"`
	Duration    int    `json:"duration"`
	IsActive    *bool  `json:"is_active"`
}

// Validate ensures request correctness.
func (r CourseRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if r.Duration <= 0 {
		return errors.New("duration must be > 0")
	}
	return nil
}

// CourseUpdateRequest is the payload for PATCH /v1/admin/courses/{id}.
type CourseUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Level       *string `json:"level"`
	Duration    *int    `json:"duration"`
	IsActive    *bool   `json:"is_active"`
}

// Validate ensures request correctness.
func (r CourseUpdateRequest) Validate() error {
	if r.Title == nil && r.Description == nil && r.ImageURL == nil && r.Level == nil && r.Duration == nil && r.IsActive == nil {
		return errors.New("at least one field is required")
	}
	return nil
}

// WorkoutRequest is the payload for POST /v1/admin/courses/{id}/workout.
type WorkoutRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Day         int    `json:"day"`
	Duration    int    `json:"duration"`
	Calories    int    `json:"calories"`
}

// Validate ensures request correctness.
func (r WorkoutRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// ExerciseRequest is the payload for POST /v1/admin/workouts/{id}/exercises.
type ExerciseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	Rest        int    `json:"rest"`
	ImageURL    string `json:"image_url"`
	VideoURL    string `json:"video_url"`
	OrderIndex  int    `json:"order_index"`
}

// Validate ensures request correctness.
func (r ExerciseRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

func (h *Handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.UserFilter{
		Search: q.Get("search"),
		Role:   domain.Role(strings.ToLower(q.Get("role"))),
		Status: domain.UserStatus(strings.ToLower(q.Get("status"))),
	}
	if f.Role != "" && !f.Role.Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", "role must be user, moderator or admin")
		return
	}
	switch f.Status {
	case domain.UserStatusAll, domain.UserStatusActive, domain.UserStatusBlocked:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "status must be active or blocked")
		return
	}
	users, err := h.Accounts.ListUsers(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUserUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	update := domain.AdminUserUpdate{Username: req.Username, FullName: req.FullName, IsBlocked: req.IsBlocked}
	if req.Role != nil {
		role := domain.Role(strings.ToLower(*req.Role))
		update.Role = &role
	}
	user, err := h.Accounts.UpdateUser(r.Context(), currentUser(r).ID, chi.URLParam(r, "userID"), update)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) adminSetRole(w http.ResponseWriter, r *http.Request) {
	var req SetRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.Accounts.SetRole(r.Context(), currentUser(r).ID, chi.URLParam(r, "userID"), domain.Role(req.Role))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) adminSetBlocked(w http.ResponseWriter, r *http.Request) {
	var req SetBlockedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.Accounts.SetBlocked(r.Context(), currentUser(r).ID, chi.URLParam(r, "userID"), *req.Blocked)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.DeleteUser(r.Context(), currentUser(r).ID, chi.URLParam(r, "userID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.AdminCourseFilter{
		Search: q.Get("search"),
		Level:  domain.Level(strings.ToLower(q.Get("level"))),
		Status: domain.PublishStatus(strings.ToLower(q.Get("status"))),
	}
	if f.Level != "" && !f.Level.Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", "level must be beginner, intermediate or advanced")
		return
	}
	switch f.Status {
	case domain.PublishStatusAll, domain.PublishStatusPublished, domain.PublishStatusDraft:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "status must be published or draft")
		return
	}
	courses, err := h.Catalog.AdminListCourses(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]CourseView, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseView(c, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) adminCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	course, err := h.Catalog.CreateCourse(r.Context(), domain.Course{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Level:       domain.Level(strings.ToLower(req.Level)),
		Duration:    req.Duration,
		IsActive:    active,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCourseView(*course, false))
}

func (h *Handler) adminUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	update := domain.CourseUpdate{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Duration:    req.Duration,
		IsActive:    req.IsActive,
	}
	if req.Level != nil {
		level := domain.Level(strings.ToLower(*req.Level))
		update.Level = &level
	}
	course, err := h.Catalog.UpdateCourse(r.Context(), chi.URLParam(r, "courseID"), update)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseView(*course, false))
}

func (h *Handler) adminDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteCourse(r.Context(), chi.URLParam(r, "courseID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req WorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	workout, err := h.Catalog.CreateWorkout(r.Context(), domain.Workout{
		CourseID:    chi.URLParam(r, "courseID"),
		Title:       req.Title,
		Description: req.Description,
		Day:         req.Day,
		Duration:    req.Duration,
		Calories:    req.Calories,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkoutView(*workout))
}

func (h *Handler) adminCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req ExerciseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	exercise, err := h.Catalog.CreateExercise(r.Context(), domain.Exercise{
		WorkoutID:   chi.URLParam(r, "workoutID"),
		Title:       req.Title,
		Description: req.Description,
		Sets:        req.Sets,
		Reps:        req.Reps,
		Rest:        req.Rest,
		ImageURL:    req.ImageURL,
		VideoURL:    req.VideoURL,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExerciseView(*exercise))
}
