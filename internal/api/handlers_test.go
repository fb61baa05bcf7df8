package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/fitcoach/internal/auth"
	"example.com/fitcoach/internal/cache"
	"example.com/fitcoach/internal/captcha"
	"example.com/fitcoach/internal/chat"
	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/persistence/memory"
	"example.com/fitcoach/internal/workout"
)

type answerVerifier struct{}

func (answerVerifier) Verify(_ context.Context, _, answer string) (bool, error) {
	return answer == "ok", nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type recordingMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, _, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

type fixture struct {
	store   *memory.Store
	catalog *domain.CatalogService
	issuer  *auth.TokenIssuer
	handler http.Handler
	mailer  *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := auth.Config{Secret: "test-secret", Issuer: "fitcoach-test", TTL: time.Hour}
	store := memory.NewStore()
	issuer := auth.NewTokenIssuer(cfg)
	mailer := &recordingMailer{}
	logger := zerolog.Nop()

	hub := chat.NewHub("*", logger)
	catalog := domain.NewCatalogService(store, store, store, cache.NoopCatalog{})
	progress := domain.NewProgressService(store, store)
	h := NewHandler(Deps{
		Accounts: domain.NewAccountService(store, store, plainHasher{}, answerVerifier{}, issuer, mailer,
			domain.AccountOptions{ResetBaseURL: "http://app.test"}),
		Catalog:      catalog,
		Progress:     progress,
		Chat:         domain.NewChatService(store, store, hub),
		Nutrition:    domain.NewNutritionService(store, store),
		Achievements: domain.NewAchievementService(store, store),
		Stats:        domain.NewStatsService(store, store),
		Captcha:      captcha.NewService(captcha.NewMemoryStore(), time.Minute, 0),
		Hub:          hub,
		Sessions:     workout.NewManager(nil, workout.WithTickInterval(10*time.Millisecond)),
		AuthConfig:   cfg,
		Logger:       logger,
	})
	return &fixture{store: store, catalog: catalog, issuer: issuer, handler: h.Routes(), mailer: mailer}
}

func (f *fixture) user(t *testing.T, role domain.Role) (domain.User, string) {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.NewString()
	u := domain.User{
		ID:        id,
		Email:     id[:8] + "@fitcoach.test",
		Username:  "user-" + id[:8],
		Role:      role,
		Provider:  "password",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u, "plain:secret123"))
	session, err := f.issuer.IssueToken(u)
	require.NoError(t, err)
	return u, session.Token
}

func (f *fixture) course(t *testing.T, active bool) (domain.Course, domain.Workout) {
	t.Helper()
	ctx := context.Background()
	c, err := f.catalog.CreateCourse(ctx, domain.Course{
		Title:       "Утренняя зарядка " + uuid.NewString()[:6],
		Description: "**Лёгкий** старт дня",
		Level:       domain.LevelBeginner,
		Duration:    7,
		IsActive:    active,
	})
	require.NoError(t, err)
	w, err := f.catalog.CreateWorkout(ctx, domain.Workout{CourseID: c.ID, Title: "День 1", Duration: 20, Calories: 150})
	require.NoError(t, err)
	for _, title := range []string{"Приседания", "Планка"} {
		_, err := f.catalog.CreateExercise(ctx, domain.Exercise{WorkoutID: w.ID, Title: title, Sets: 3, Reps: 10, Rest: 1})
		require.NoError(t, err)
	}
	return *c, *w
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func requireErrorType(t *testing.T, rr *httptest.ResponseRecorder, status int, errType string) {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	body := decode[map[string]string](t, rr)
	require.Equal(t, errType, body["type"])
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCaptchaChallengeIsNotCached(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/v1/captcha", "", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	challenge := decode[captcha.Challenge](t, rr)
	require.NotEmpty(t, challenge.ID)
	require.True(t, strings.HasPrefix(challenge.Image, "data:image/png;base64,"))
}

func TestRegisterLoginAndProfile(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Email: "Anna@Example.com", Username: "anna", Password: "secret123", CaptchaID: "c1", CaptchaAnswer: "ok",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	registered := decode[AuthResponse](t, rr)
	require.NotEmpty(t, registered.Token)
	require.Equal(t, "anna@example.com", registered.User.Email)
	require.Equal(t, "user", registered.User.Role)

	rr = f.do(t, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Email: "anna@example.com", Username: "anna2", Password: "secret123", CaptchaID: "c2", CaptchaAnswer: "ok",
	})
	requireErrorType(t, rr, http.StatusConflict, "conflict")

	rr = f.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{
		Email: "anna@example.com", Password: "secret123", CaptchaID: "c3", CaptchaAnswer: "wrong",
	})
	requireErrorType(t, rr, http.StatusBadRequest, "captcha_failed")

	rr = f.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{
		Email: "anna@example.com", Password: "nope-nope", CaptchaID: "c4", CaptchaAnswer: "ok",
	})
	requireErrorType(t, rr, http.StatusUnauthorized, "invalid_credentials")

	rr = f.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{
		Email: "anna@example.com", Password: "secret123", CaptchaID: "c5", CaptchaAnswer: "ok",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	login := decode[AuthResponse](t, rr)

	rr = f.do(t, http.MethodGet, "/v1/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "anna", decode[UserView](t, rr).Username)

	goal := "weight_loss"
	rr = f.do(t, http.MethodPatch, "/v1/me", login.Token, map[string]any{"weight": 64.5, "goal": goal})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[UserView](t, rr)
	require.NotNil(t, updated.Goal)
	require.Equal(t, goal, *updated.Goal)
}

func TestRegisterRequiresCaptchaFields(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Email: "a@b.c", Username: "abc", Password: "secret123",
	})
	requireErrorType(t, rr, http.StatusBadRequest, "validation_failed")
}

func TestUnknownFieldsAreRejected(t *testing.T) {
	f := newFixture(t)
	_, token := f.user(t, domain.RoleUser)
	rr := f.do(t, http.MethodPatch, "/v1/me", token, map[string]any{"role": "admin"})
	requireErrorType(t, rr, http.StatusBadRequest, "invalid_request")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/v1/me", "", nil)
	requireErrorType(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = f.do(t, http.MethodGet, "/v1/me", "garbage", nil)
	requireErrorType(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestBlockedAccountIsRejectedWithValidToken(t *testing.T) {
	f := newFixture(t)
	user, token := f.user(t, domain.RoleUser)
	blocked := true
	_, err := f.store.UpdateUserByAdmin(context.Background(), user.ID, domain.AdminUserUpdate{IsBlocked: &blocked}, time.Now())
	require.NoError(t, err)

	rr := f.do(t, http.MethodGet, "/v1/me", token, nil)
	requireErrorType(t, rr, http.StatusForbidden, "account_blocked")
}

func TestPasswordResetAlwaysAccepted(t *testing.T) {
	f := newFixture(t)
	user, _ := f.user(t, domain.RoleUser)

	rr := f.do(t, http.MethodPost, "/v1/auth/password-reset", "", PasswordResetRequest{Email: "nobody@fitcoach.test"})
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, f.mailer.links)

	rr = f.do(t, http.MethodPost, "/v1/auth/password-reset", "", PasswordResetRequest{Email: user.Email})
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, f.mailer.links, 1)

	link := f.mailer.links[0]
	token := link[strings.Index(link, "token=")+len("token="):]
	rr = f.do(t, http.MethodPost, "/v1/auth/password-reset/confirm", "", PasswordResetConfirmRequest{Token: token, Password: "brand-new-pass"})
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/v1/auth/password-reset/confirm", "", PasswordResetConfirmRequest{Token: token, Password: "brand-new-pass"})
	requireErrorType(t, rr, http.StatusBadRequest, "invalid_reset_token")
}

func TestGoogleSignInDisabled(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/v1/auth/google/start", "", nil)
	requireErrorType(t, rr, http.StatusNotFound, "not_found")
}

func TestRouteCheck(t *testing.T) {
	f := newFixture(t)
	_, userToken := f.user(t, domain.RoleUser)
	_, adminToken := f.user(t, domain.RoleAdmin)

	cases := []struct {
		name     string
		path     string
		token    string
		allowed  bool
		redirect string
	}{
		{name: "anonymous home without onboarding", path: "/", redirect: "/onboarding"},
		{name: "anonymous home after onboarding", path: "/?x=1&onboarding_seen=true", allowed: true},
		{name: "anonymous profile", path: "/profile", redirect: "/login"},
		{name: "user profile", path: "/profile", token: userToken, allowed: true},
		{name: "anonymous admin page", path: "/admin/courses", redirect: "/"},
		{name: "anonymous moderation page", path: "/moderator/chat", redirect: "/"},
		{name: "user admin page", path: "/admin/users", token: userToken, redirect: "/"},
		{name: "admin admin page", path: "/admin/users", token: adminToken, allowed: true},
		{name: "user moderation page", path: "/moderator/chat", token: userToken, redirect: "/"},
		{name: "unknown path", path: "/nowhere", allowed: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path, extra, _ := strings.Cut(tc.path, "?")
			target := "/v1/routes/check?path=" + path
			if extra != "" {
				target += "&" + extra
			}
			rr := f.do(t, http.MethodGet, target, tc.token, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			resp := decode[RouteCheckResponse](t, rr)
			require.Equal(t, tc.allowed, resp.Allowed)
			require.Equal(t, tc.redirect, resp.Redirect)
		})
	}
}

func TestCatalogVisibility(t *testing.T) {
	f := newFixture(t)
	active, _ := f.course(t, true)
	draft, _ := f.course(t, false)
	_, adminToken := f.user(t, domain.RoleAdmin)

	rr := f.do(t, http.MethodGet, "/v1/courses", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct{ Items []CourseView }](t, rr)
	require.Len(t, list.Items, 1)
	require.Equal(t, active.ID, list.Items[0].ID)
	require.Contains(t, list.Items[0].DescriptionHTML, "<strong>Лёгкий</strong>")
	require.Equal(t, "short", list.Items[0].DurationBucket)

	rr = f.do(t, http.MethodGet, "/v1/courses/"+draft.ID, "", nil)
	requireErrorType(t, rr, http.StatusNotFound, "not_found")

	rr = f.do(t, http.MethodGet, "/v1/courses?include_inactive=true", adminToken, nil)
	require.Len(t, decode[struct{ Items []CourseView }](t, rr).Items, 2)

	rr = f.do(t, http.MethodGet, "/v1/courses?level=expert", "", nil)
	requireErrorType(t, rr, http.StatusBadRequest, "validation_failed")
}

func TestFavoritesAndRatings(t *testing.T) {
	f := newFixture(t)
	course, _ := f.course(t, true)
	_, token := f.user(t, domain.RoleUser)

	rr := f.do(t, http.MethodPut, "/v1/courses/"+course.ID+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/courses/"+course.ID, token, nil)
	require.True(t, decode[CourseView](t, rr).IsFavorite)

	rr = f.do(t, http.MethodGet, "/v1/me/favorites", token, nil)
	require.Len(t, decode[struct{ Items []CourseView }](t, rr).Items, 1)

	rr = f.do(t, http.MethodDelete, "/v1/courses/"+course.ID+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = f.do(t, http.MethodGet, "/v1/courses/"+course.ID+"/favorite", token, nil)
	require.False(t, decode[map[string]bool](t, rr)["is_favorite"])

	rr = f.do(t, http.MethodPost, "/v1/courses/"+course.ID+"/ratings", token, RateCourseRequest{Score: 6})
	requireErrorType(t, rr, http.StatusBadRequest, "validation_failed")

	rr = f.do(t, http.MethodPost, "/v1/courses/"+course.ID+"/ratings", token, RateCourseRequest{Score: 4})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	summary := decode[map[string]float64](t, rr)
	require.InDelta(t, 4.0, summary["avg_rating"], 0.001)
	require.Equal(t, 1.0, summary["ratings_count"])
}

func TestEnrollmentAndProgress(t *testing.T) {
	f := newFixture(t)
	course, _ := f.course(t, true)
	_, token := f.user(t, domain.RoleUser)

	rr := f.do(t, http.MethodGet, "/v1/courses/"+course.ID+"/progress", token, nil)
	requireErrorType(t, rr, http.StatusNotFound, "not_found")

	rr = f.do(t, http.MethodPost, "/v1/courses/"+course.ID+"/enroll", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Equal(t, 1, decode[ProgressView](t, rr).CurrentDay)

	rr = f.do(t, http.MethodPost, "/v1/courses/"+course.ID+"/enroll", token, nil)
	requireErrorType(t, rr, http.StatusConflict, "conflict")

	rr = f.do(t, http.MethodGet, "/v1/courses/"+course.ID+"/enrollments/count", token, nil)
	require.Equal(t, 1.0, decode[map[string]any](t, rr)["count"])

	rr = f.do(t, http.MethodGet, "/v1/me/current-workout", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, course.ID, decode[CurrentWorkoutView](t, rr).Course.ID)

	rr = f.do(t, http.MethodPatch, "/v1/courses/"+course.ID+"/progress", token, map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.True(t, decode[ProgressView](t, rr).Completed)

	rr = f.do(t, http.MethodGet, "/v1/me/current-workout", token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/me/stats", token, nil)
	stats := decode[StatsView](t, rr)
	require.Equal(t, 1, stats.CompletedCourses)
	require.Equal(t, 7, stats.TotalTime)

	rr = f.do(t, http.MethodGet, "/v1/me/activity", token, nil)
	require.Len(t, decode[struct{ Days []ActivityDayView }](t, rr).Days, 7)
}

func TestChatRequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	course, _ := f.course(t, true)
	_, token := f.user(t, domain.RoleUser)
	_, modToken := f.user(t, domain.RoleModerator)
	base := "/v1/courses/" + course.ID + "/chat/messages"

	rr := f.do(t, http.MethodPost, base, token, PostMessageRequest{Content: "привет"})
	requireErrorType(t, rr, http.StatusForbidden, "not_enrolled")

	rr = f.do(t, http.MethodPost, "/v1/courses/"+course.ID+"/enroll", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	for _, content := range []string{"первое", "второе", "третье"} {
		rr = f.do(t, http.MethodPost, base, token, PostMessageRequest{Content: content})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		time.Sleep(2 * time.Millisecond)
	}

	rr = f.do(t, http.MethodGet, base+"?limit=2", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[MessagePage](t, rr)
	require.Len(t, page.Items, 2)
	require.Equal(t, "второе", page.Items[0].Content)
	require.Equal(t, "третье", page.Items[1].Content)
	require.NotEmpty(t, page.NextCursor)

	rr = f.do(t, http.MethodGet, base+"?limit=2&before="+page.NextCursor, token, nil)
	older := decode[MessagePage](t, rr)
	require.Len(t, older.Items, 1)
	require.Equal(t, "первое", older.Items[0].Content)

	rr = f.do(t, http.MethodGet, base+"?before=%25%25", token, nil)
	requireErrorType(t, rr, http.StatusBadRequest, "validation_failed")

	// Moderators read every course without enrolling.
	rr = f.do(t, http.MethodGet, base, modToken, nil)
	require.Len(t, decode[MessagePage](t, rr).Items, 3)
}

func TestModerationQueue(t *testing.T) {
	f := newFixture(t)
	course, _ := f.course(t, true)
	_, token := f.user(t, domain.RoleUser)
	_, modToken := f.user(t, domain.RoleModerator)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/courses/"+course.ID+"/enroll", token, nil).Code)
	rr := f.do(t, http.MethodPost, "/v1/courses/"+course.ID+"/chat/messages", token, PostMessageRequest{Content: "вопрос"})
	msg := decode[chat.MessageView](t, rr)
	require.False(t, msg.IsModerated)

	rr = f.do(t, http.MethodGet, "/v1/moderation/messages", token, nil)
	requireErrorType(t, rr, http.StatusForbidden, "forbidden")

	rr = f.do(t, http.MethodGet, "/v1/moderation/messages?status=pending", modToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, decode[struct{ Items []chat.MessageView }](t, rr).Items, 1)

	rr = f.do(t, http.MethodPost, "/v1/moderation/messages/"+msg.ID+"/approve", modToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, decode[chat.MessageView](t, rr).IsModerated)

	rr = f.do(t, http.MethodGet, "/v1/moderation/messages?status=pending", modToken, nil)
	require.Empty(t, decode[struct{ Items []chat.MessageView }](t, rr).Items)

	rr = f.do(t, http.MethodDelete, "/v1/moderation/messages/"+msg.ID, modToken, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodDelete, "/v1/moderation/messages/"+msg.ID, modToken, nil)
	requireErrorType(t, rr, http.StatusNotFound, "not_found")
}

func TestNutritionLogs(t *testing.T) {
	f := newFixture(t)
	_, token := f.user(t, domain.RoleUser)

	rr := f.do(t, http.MethodPost, "/v1/nutrition/logs", token, NutritionLogRequest{
		FoodName: "Овсянка", Calories: 350, Protein: 12, Carbs: 60, Fats: 6, Date: "2026-03-02", MealType: "breakfast",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	entry := decode[NutritionLogView](t, rr)

	rr = f.do(t, http.MethodPost, "/v1/nutrition/logs", token, NutritionLogRequest{
		FoodName: "Суп", Calories: 200, Date: "2026-03-02", MealType: "brunch",
	})
	requireErrorType(t, rr, http.StatusBadRequest, "validation_failed")

	rr = f.do(t, http.MethodGet, "/v1/nutrition/logs?date=2026-03-02", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	day := decode[DailySummaryView](t, rr)
	require.Equal(t, 350, day.Totals.Calories)
	require.Equal(t, 350, day.ByMeal["breakfast"].Calories)

	rr = f.do(t, http.MethodGet, "/v1/nutrition/logs?date=02.03.2026", token, nil)
	requireErrorType(t, rr, http.StatusBadRequest, "validation_failed")

	rr = f.do(t, http.MethodDelete, "/v1/nutrition/logs/"+entry.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, http.MethodDelete, "/v1/nutrition/logs/"+entry.ID, token, nil)
	requireErrorType(t, rr, http.StatusNotFound, "not_found")

	rr = f.do(t, http.MethodGet, "/v1/nutrition/recommendations", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rec := decode[RecommendationView](t, rr)
	require.NotEmpty(t, rec.Foods)
	require.Positive(t, rec.Targets.Calories)
}

func TestWorkoutSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	_, w := f.course(t, true)
	_, token := f.user(t, domain.RoleUser)
	_, otherToken := f.user(t, domain.RoleUser)

	rr := f.do(t, http.MethodPost, "/v1/workouts/"+w.ID+"/sessions", token, nil)
	requireErrorType(t, rr, http.StatusForbidden, "not_enrolled")

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/courses/"+w.CourseID+"/enroll", token, nil).Code)

	rr = f.do(t, http.MethodPost, "/v1/workouts/"+w.ID+"/sessions", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	snap := decode[workout.Snapshot](t, rr)
	require.Equal(t, w.ID, snap.WorkoutID)
	require.NotNil(t, snap.Exercise)
	require.Equal(t, "Приседания", snap.Exercise.Title)

	rr = f.do(t, http.MethodGet, "/v1/sessions/"+snap.SessionID, otherToken, nil)
	requireErrorType(t, rr, http.StatusNotFound, "not_found")

	rr = f.do(t, http.MethodPost, "/v1/sessions/"+snap.SessionID+"/actions", token, SessionActionRequest{Action: "rewind"})
	requireErrorType(t, rr, http.StatusBadRequest, "validation_failed")

	rr = f.do(t, http.MethodPost, "/v1/sessions/"+snap.SessionID+"/actions", token, SessionActionRequest{Action: "next"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "Планка", decode[workout.Snapshot](t, rr).Exercise.Title)

	rr = f.do(t, http.MethodDelete, "/v1/sessions/"+snap.SessionID, token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, http.MethodGet, "/v1/sessions/"+snap.SessionID, token, nil)
	requireErrorType(t, rr, http.StatusNotFound, "not_found")
}

func TestWorkoutSessionStream(t *testing.T) {
	f := newFixture(t)
	_, w := f.course(t, true)
	_, token := f.user(t, domain.RoleUser)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/courses/"+w.CourseID+"/enroll", token, nil).Code)
	snap := decode[workout.Snapshot](t, f.do(t, http.MethodPost, "/v1/workouts/"+w.ID+"/sessions", token, nil))

	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/sessions/"+snap.SessionID+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var first workout.Snapshot
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			require.NoError(t, json.Unmarshal([]byte(data), &first))
			break
		}
	}
	require.Equal(t, snap.SessionID, first.SessionID)
}

func TestAdminManagesCatalogAndUsers(t *testing.T) {
	f := newFixture(t)
	admin, adminToken := f.user(t, domain.RoleAdmin)
	target, userToken := f.user(t, domain.RoleUser)

	rr := f.do(t, http.MethodPost, "/v1/admin/courses", userToken, CourseRequest{Title: "X", Level: "beginner", Duration: 3})
	requireErrorType(t, rr, http.StatusForbidden, "forbidden")

	rr = f.do(t, http.MethodPost, "/v1/admin/courses", adminToken, CourseRequest{Title: "Силовой блок", Level: "advanced", Duration: 45})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	course := decode[CourseView](t, rr)
	require.True(t, course.IsActive)
	require.Equal(t, "long", course.DurationBucket)

	rr = f.do(t, http.MethodPost, "/v1/admin/courses", adminToken, CourseRequest{Title: "Плохой", Level: "expert", Duration: 5})
	requireErrorType(t, rr, http.StatusBadRequest, "validation_failed")

	rr = f.do(t, http.MethodPost, "/v1/admin/courses/"+course.ID+"/workout", adminToken, WorkoutRequest{Title: "День 1", Duration: 40})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	wv := decode[WorkoutView](t, rr)

	rr = f.do(t, http.MethodPost, "/v1/admin/courses/"+course.ID+"/workout", adminToken, WorkoutRequest{Title: "День 2", Duration: 40})
	requireErrorType(t, rr, http.StatusConflict, "conflict")

	rr = f.do(t, http.MethodPost, "/v1/admin/workouts/"+wv.ID+"/exercises", adminToken, ExerciseRequest{Title: "Жим", Sets: 4, Reps: 8, Rest: 90})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Equal(t, 1, decode[ExerciseView](t, rr).OrderIndex)

	draft := false
	rr = f.do(t, http.MethodPatch, "/v1/admin/courses/"+course.ID, adminToken, CourseUpdateRequest{IsActive: &draft})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.False(t, decode[CourseView](t, rr).IsActive)

	rr = f.do(t, http.MethodGet, "/v1/admin/courses?status=draft", adminToken, nil)
	require.Len(t, decode[struct{ Items []CourseView }](t, rr).Items, 1)

	rr = f.do(t, http.MethodPut, "/v1/admin/users/"+target.ID+"/role", adminToken, SetRoleRequest{Role: "moderator"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "moderator", decode[UserView](t, rr).Role)

	// The role change applies to the old token immediately.
	rr = f.do(t, http.MethodGet, "/v1/moderation/messages", userToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPut, "/v1/admin/users/"+admin.ID+"/block", adminToken, map[string]bool{"blocked": true})
	requireErrorType(t, rr, http.StatusForbidden, "forbidden")

	rr = f.do(t, http.MethodGet, "/v1/admin/users?role=moderator", adminToken, nil)
	users := decode[struct{ Items []UserView }](t, rr).Items
	require.Len(t, users, 1)
	require.Equal(t, target.ID, users[0].ID)

	rr = f.do(t, http.MethodDelete, "/v1/admin/users/"+target.ID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, http.MethodGet, "/v1/me", userToken, nil)
	requireErrorType(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = f.do(t, http.MethodDelete, "/v1/admin/courses/"+course.ID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
}
