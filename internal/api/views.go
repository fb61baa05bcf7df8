package api

import (
	"time"

	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/markdown"
)

// UserView is the JSON shape of an account.
type UserView struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	FullName          *string   `json:"full_name,omitempty"`
	AvatarURL         *string   `json:"avatar_url,omitempty"`
	Weight            *float64  `json:"weight,omitempty"`
	Height            *float64  `json:"height,omitempty"`
	Goal              *string   `json:"goal,omitempty"`
	Role              string    `json:"role"`
	IsBlocked         bool      `json:"is_blocked"`
	HasSeenOnboarding bool      `json:"has_seen_onboarding"`
	Provider          string    `json:"provider"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toUserView(u domain.User) UserView {
	return UserView{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		FullName:          u.FullName,
		AvatarURL:         u.AvatarURL,
		Weight:            u.Weight,
		Height:            u.Height,
		Goal:              u.Goal,
		Role:              string(u.Role),
		IsBlocked:         u.IsBlocked,
		HasSeenOnboarding: u.HasSeenOnboarding,
		Provider:          u.Provider,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// AuthResponse is returned by every sign-in endpoint.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
	Created   bool      `json:"created,omitempty"`
}

func toAuthResponse(res *domain.AuthResult, created bool) AuthResponse {
	return AuthResponse{
		Token:     res.Session.Token,
		ExpiresAt: res.Session.ExpiresAt,
		User:      toUserView(res.User),
		Created:   created,
	}
}

// CourseView is the JSON shape of a catalog course.
type CourseView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"description_html"`
	ImageURL        string    `json:"image_url,omitempty"`
	Level           string    `json:"level"`
	Duration        int       `json:"duration"`
	DurationBucket  string    `json:"duration_bucket"`
	IsActive        bool      `json:"is_active"`
	AvgRating       float64   `json:"avg_rating"`
	RatingsCount    int       `json:"ratings_count"`
	IsFavorite      bool      `json:"is_favorite"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toCourseView(c domain.Course, favorite bool) CourseView {
	return CourseView{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		DescriptionHTML: markdown.MustHTML(c.Description),
		ImageURL:        c.ImageURL,
		Level:           string(c.Level),
		Duration:        c.Duration,
		DurationBucket:  string(domain.BucketFor(c.Duration)),
		IsActive:        c.IsActive,
		AvgRating:       c.AvgRating,
		RatingsCount:    c.RatingsCount,
		IsFavorite:      favorite,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toCourseViews(views []domain.CourseView) []CourseView {
	out := make([]CourseView, 0, len(views))
	for _, v := range views {
		out = append(out, toCourseView(v.Course, v.IsFavorite))
	}
	return out
}

// ExerciseView is one workout step.
type ExerciseView struct {
	ID          string `json:"id"`
	WorkoutID   string `json:"workout_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	Rest        int    `json:"rest"`
	ImageURL    string `json:"image_url,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
	OrderIndex  int    `json:"order_index"`
}

func toExerciseView(e domain.Exercise) ExerciseView {
	return ExerciseView{
		ID:          e.ID,
		WorkoutID:   e.WorkoutID,
		Title:       e.Title,
		Description: e.Description,
		Sets:        e.Sets,
		Reps:        e.Reps,
		Rest:        e.Rest,
		ImageURL:    e.ImageURL,
		VideoURL:    e.VideoURL,
		OrderIndex:  e.OrderIndex,
	}
}

// WorkoutView is a workout, optionally with the exercises the player will run.
type WorkoutView struct {
	ID          string         `json:"id"`
	CourseID    string         `json:"course_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Day         int            `json:"day"`
	Duration    int            `json:"duration"`
	Calories    int            `json:"calories"`
	Exercises   []ExerciseView `json:"exercises,omitempty"`
	Fallback    bool           `json:"fallback,omitempty"`
}

func toWorkoutView(w domain.Workout) WorkoutView {
	return WorkoutView{
		ID:          w.ID,
		CourseID:    w.CourseID,
		Title:       w.Title,
		Description: w.Description,
		Day:         w.Day,
		Duration:    w.Duration,
		Calories:    w.Calories,
	}
}

func toPlanView(p domain.WorkoutPlan) WorkoutView {
	view := toWorkoutView(p.Workout)
	view.Fallback = p.Fallback
	view.Exercises = make([]ExerciseView, 0, len(p.Exercises))
	for _, e := range p.Exercises {
		view.Exercises = append(view.Exercises, toExerciseView(e))
	}
	return view
}

// ProgressView is a user's state in one course.
type ProgressView struct {
	CourseID           string    `json:"course_id"`
	CourseTitle        string    `json:"course_title,omitempty"`
	Completed          bool      `json:"completed"`
	CurrentDay         int       `json:"current_day"`
	CompletedWorkouts  int       `json:"completed_workouts"`
	CompletedExercises int       `json:"completed_exercises"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toProgressView(p domain.Progress) ProgressView {
	return ProgressView{
		CourseID:           p.CourseID,
		CourseTitle:        p.CourseTitle,
		Completed:          p.Completed,
		CurrentDay:         p.CurrentDay,
		CompletedWorkouts:  p.CompletedWorkouts,
		CompletedExercises: p.CompletedExercises,
		UpdatedAt:          p.UpdatedAt,
	}
}

// AchievementView is an achievement with the caller's progress toward it.
type AchievementView struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon"`
	Type          string     `json:"type"`
	RequiredValue int        `json:"required_value"`
	Progress      int        `json:"progress"`
	Percent       int        `json:"percent"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func toAchievementView(ua domain.UserAchievement) AchievementView {
	return AchievementView{
		ID:            ua.Achievement.ID,
		Title:         ua.Achievement.Title,
		Description:   ua.Achievement.Description,
		Icon:          ua.Achievement.Icon,
		Type:          string(ua.Achievement.Type),
		RequiredValue: ua.Achievement.RequiredValue,
		Progress:      ua.Progress,
		Percent:       ua.Percent(),
		Completed:     ua.Completed,
		CompletedAt:   ua.CompletedAt,
	}
}

// StatsView is the profile dashboard summary.
type StatsView struct {
	TotalWorkouts    int `json:"total_workouts"`
	TotalTime        int `json:"total_time"`
	CurrentStreak    int `json:"current_streak"`
	Achievements     int `json:"achievements"`
	CompletedCourses int `json:"completed_courses"`
	ActiveDays       int `json:"active_days"`
}

// ActivityDayView is one bar of the weekly chart.
type ActivityDayView struct {
	Day     string `json:"day"`
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// CurrentWorkoutView is the dashboard card for the course in progress.
type CurrentWorkoutView struct {
	Progress ProgressView `json:"progress"`
	Course   CourseView   `json:"course"`
	Workout  WorkoutView  `json:"workout"`
}

// NutritionLogView is one food entry.
type NutritionLogView struct {
	ID        string    `json:"id"`
	FoodName  string    `json:"food_name"`
	Calories  int       `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fats      float64   `json:"fats"`
	Date      string    `json:"date"`
	MealType  string    `json:"meal_type"`
	CreatedAt time.Time `json:"created_at"`
}

func toNutritionLogView(n domain.NutritionLog) NutritionLogView {
	return NutritionLogView{
		ID:        n.ID,
		FoodName:  n.FoodName,
		Calories:  n.Calories,
		Protein:   n.Protein,
		Carbs:     n.Carbs,
		Fats:      n.Fats,
		Date:      n.Date,
		MealType:  string(n.MealType),
		CreatedAt: n.CreatedAt,
	}
}

// MacroTotalsView sums calories and macronutrients.
type MacroTotalsView struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

func toMacroTotalsView(t domain.MacroTotals) MacroTotalsView {
	return MacroTotalsView{Calories: t.Calories, Protein: t.Protein, Carbs: t.Carbs, Fats: t.Fats}
}

// DailySummaryView is one day of nutrition logs with totals.
type DailySummaryView struct {
	Date   string                     `json:"date"`
	Totals MacroTotalsView            `json:"totals"`
	ByMeal map[string]MacroTotalsView `json:"by_meal"`
	Logs   []NutritionLogView         `json:"logs"`
}

func toDailySummaryView(s domain.DailySummary) DailySummaryView {
	view := DailySummaryView{
		Date:   s.Date,
		Totals: toMacroTotalsView(s.Totals),
		ByMeal: make(map[string]MacroTotalsView, len(s.ByMeal)),
		Logs:   make([]NutritionLogView, 0, len(s.Logs)),
	}
	for meal, totals := range s.ByMeal {
		view.ByMeal[string(meal)] = toMacroTotalsView(totals)
	}
	for _, l := range s.Logs {
		view.Logs = append(view.Logs, toNutritionLogView(l))
	}
	return view
}

// FoodView is one recommended food with its reason.
type FoodView struct {
	Name     string  `json:"name"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Reason   string  `json:"reason"`
}

// MacroTargetsView is a daily intake target.
type MacroTargetsView struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
}

// RecommendationView bundles foods and macro targets.
type RecommendationView struct {
	Goal    string           `json:"goal"`
	Foods   []FoodView       `json:"foods"`
	Targets MacroTargetsView `json:"targets"`
}

func toRecommendationView(rec domain.Recommendation) RecommendationView {
	view := RecommendationView{
		Goal:  rec.Goal,
		Foods: make([]FoodView, 0, len(rec.Foods)),
		Targets: MacroTargetsView{
			Calories: rec.Targets.Calories,
			Protein:  rec.Targets.Protein,
			Carbs:    rec.Targets.Carbs,
			Fats:     rec.Targets.Fats,
		},
	}
	for _, f := range rec.Foods {
		view.Foods = append(view.Foods, FoodView{
			Name:     f.Name,
			Calories: f.Calories,
			Protein:  f.Protein,
			Carbs:    f.Carbs,
			Fats:     f.Fats,
			Reason:   f.Reason,
		})
	}
	return view
}
