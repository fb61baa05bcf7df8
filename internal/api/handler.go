// Package api exposes the fitcoach HTTP and WebSocket endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"example.com/fitcoach/internal/auth"
	"example.com/fitcoach/internal/captcha"
	"example.com/fitcoach/internal/chat"
	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/oauth"
	"example.com/fitcoach/internal/observability"
	httptransport "example.com/fitcoach/internal/transport/http"
	"example.com/fitcoach/internal/workout"
)

// Deps carries the services the handlers call. Google and RateLimiter are optional.
type Deps struct {
	Accounts     *domain.AccountService
	Catalog      *domain.CatalogService
	Progress     *domain.ProgressService
	Chat         *domain.ChatService
	Nutrition    *domain.NutritionService
	Achievements *domain.AchievementService
	Stats        *domain.StatsService
	Captcha      *captcha.Service
	Hub          *chat.Hub
	Sessions     *workout.Manager
	Google       *oauth.Google
	RateLimiter  *httptransport.RateLimiter
	AuthConfig   auth.Config
	CORSOrigin   string
	AppBaseURL   string
	Logger       zerolog.Logger
	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	Deps
}

// NewHandler builds a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

// Routes returns the full API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.AccessLog(h.Logger))
	r.Use(middleware.Recoverer)
	if h.CORSOrigin != "" {
		r.Use(httptransport.CORS(h.CORSOrigin))
	}
	if h.RateLimiter != nil {
		r.Use(h.RateLimiter.Handler)
	}

	r.Get("/healthz", healthz)
	r.Get("/readyz", h.readyz)

	authn := auth.NewMiddleware(h.AuthConfig, func(*http.Request) bool { return true })
	r.Route("/v1", func(r chi.Router) {
		// Claims are attached whenever a valid token is present; requireUser enforces them.
		r.Use(authn.Wrap)

		r.Post("/captcha", h.newCaptcha)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/logout", h.logout)
			r.Get("/google/start", h.googleStart)
			r.Get("/google/callback", h.googleCallback)
			r.Post("/password-reset", h.requestPasswordReset)
			r.Post("/password-reset/confirm", h.confirmPasswordReset)
		})
		r.Get("/routes/check", h.checkRoute)
		r.Get("/courses", h.listCourses)
		r.Get("/courses/{courseID}", h.getCourse)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.getProfile)
				r.Patch("/", h.updateProfile)
				r.Get("/onboarding", h.getOnboarding)
				r.Put("/onboarding", h.putOnboarding)
				r.Get("/stats", h.getStats)
				r.Get("/activity", h.getActivity)
				r.Get("/current-workout", h.getCurrentWorkout)
				r.Get("/achievements", h.getAchievements)
				r.Get("/favorites", h.listFavorites)
			})

			r.Get("/courses/{courseID}/workout", h.getCourseWorkout)
			r.Get("/courses/{courseID}/enrollments/count", h.getEnrollmentCount)
			r.Get("/courses/{courseID}/favorite", h.getFavorite)
			r.Put("/courses/{courseID}/favorite", h.addFavorite)
			r.Delete("/courses/{courseID}/favorite", h.removeFavorite)
			r.Post("/courses/{courseID}/ratings", h.rateCourse)
			r.Post("/courses/{courseID}/enroll", h.enroll)
			r.Get("/courses/{courseID}/enrollment", h.getEnrollment)
			r.Get("/courses/{courseID}/progress", h.getProgress)
			r.Patch("/courses/{courseID}/progress", h.updateProgress)
			r.Get("/courses/{courseID}/chat/messages", h.listMessages)
			r.Post("/courses/{courseID}/chat/messages", h.postMessage)
			r.Get("/courses/{courseID}/chat/ws", h.chatSocket)

			r.Get("/workouts/{workoutID}", h.getWorkout)
			r.Post("/workouts/{workoutID}/sessions", h.startSession)
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.stopSession)
				r.Post("/actions", h.controlSession)
				r.Get("/events", h.streamSession)
			})

			r.Route("/nutrition", func(r chi.Router) {
				r.Get("/logs", h.getNutritionDay)
				r.Post("/logs", h.addNutritionLog)
				r.Delete("/logs/{logID}", h.deleteNutritionLog)
				r.Get("/recommendations", h.getRecommendations)
			})

			r.Route("/moderation", func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleModerator, domain.RoleAdmin))
				r.Get("/messages", h.moderationQueue)
				r.Post("/messages/{messageID}/approve", h.approveMessage)
				r.Delete("/messages/{messageID}", h.rejectMessage)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleAdmin))
				r.Get("/users", h.adminListUsers)
				r.Patch("/users/{userID}", h.adminUpdateUser)
				r.Put("/users/{userID}/role", h.adminSetRole)
				r.Put("/users/{userID}/block", h.adminSetBlocked)
				r.Delete("/users/{userID}", h.adminDeleteUser)
				r.Get("/courses", h.adminListCourses)
				r.Post("/courses", h.adminCreateCourse)
				r.Patch("/courses/{courseID}", h.adminUpdateCourse)
				r.Delete("/courses/{courseID}", h.adminDeleteCourse)
				r.Post("/courses/{courseID}/workout", h.adminCreateWorkout)
				r.Post("/workouts/{workoutID}/exercises", h.adminCreateExercise)
			})
		})
	})
	return r
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type userKey struct{}

// requireUser rejects anonymous callers and accounts that were blocked or deleted after their
// token was issued, and attaches the current user row to the context.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		user, err := h.Accounts.Profile(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
				return
			}
			h.serverError(w, r, err)
			return
		}
		if user.IsBlocked {
			writeError(w, http.StatusForbidden, "account_blocked", domain.ErrAccountBlocked.Error())
			return
		}
		// Role changes take effect before the token expires.
		current := *claims
		current.Role = string(user.Role)
		ctx := auth.WithClaims(r.Context(), &current)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userKey{}, user)))
	})
}

func currentUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(userKey{}).(*domain.User)
	return user
}

func actorFor(user *domain.User) domain.Actor {
	return domain.Actor{UserID: user.ID, Role: user.Role}
}

// viewerID returns the caller's user ID or "" for anonymous requests.
func viewerID(r *http.Request) string {
	if claims, ok := auth.FromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}

func viewerIsAdmin(r *http.Request) bool {
	claims, _ := auth.FromContext(r.Context())
	return auth.HasRole(claims, domain.RoleAdmin)
}

// writeDomainError maps domain sentinels onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, workout.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrNotEnrolled):
		writeError(w, http.StatusForbidden, "not_enrolled", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, domain.ErrAccountBlocked):
		writeError(w, http.StatusForbidden, "account_blocked", err.Error())
	case errors.Is(err, domain.ErrCaptchaFailed):
		writeError(w, http.StatusBadRequest, "captcha_failed", err.Error())
	case errors.Is(err, domain.ErrInvalidResetToken):
		writeError(w, http.StatusBadRequest, "invalid_reset_token", err.Error())
	case errors.Is(err, workout.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		h.serverError(w, r, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Error().Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
}

// validator is implemented by request bodies.
type validator interface {
	Validate() error
}

// decodeBody parses a JSON body into dst and validates it, writing the error response itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst validator) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	if err := dst.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func queryBool(r *http.Request, key string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && parsed
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
