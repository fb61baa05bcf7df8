package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/fitcoach/internal/auth"
	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/oauth"
	"example.com/fitcoach/internal/observability"
)

const oauthStateCookie = "fitcoach_oauth_state"

// RegisterRequest is the payload for POST /v1/auth/register.
type RegisterRequest struct {
	Email         string `json:"email"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

// Validate ensures request correctness.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.CaptchaID) == "" || strings.TrimSpace(r.CaptchaAnswer) == "" {
		return errors.New("captcha_id and captcha_answer are required")
	}
	return nil
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

// Validate ensures request correctness.
func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.CaptchaID) == "" || strings.TrimSpace(r.CaptchaAnswer) == "" {
		return errors.New("captcha_id and captcha_answer are required")
	}
	return nil
}

// PasswordResetRequest is the payload for POST /v1/auth/password-reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// Validate ensures request correctness.
func (r PasswordResetRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

// PasswordResetConfirmRequest is the payload for POST /v1/auth/password-reset/confirm.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate ensures request correctness.
func (r PasswordResetConfirmRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return errors.New("token is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

func (h *Handler) newCaptcha(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.Captcha.New(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, challenge)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.Accounts.Register(r.Context(), domain.Registration{
		Email:         req.Email,
		Username:      req.Username,
		Password:      req.Password,
		CaptchaID:     req.CaptchaID,
		CaptchaAnswer: req.CaptchaAnswer,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionRegister)
	writeJSON(w, http.StatusCreated, toAuthResponse(res, true))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.Accounts.Login(r.Context(), domain.Credentials{
		Email:         req.Email,
		Password:      req.Password,
		CaptchaID:     req.CaptchaID,
		CaptchaAnswer: req.CaptchaAnswer,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionLogin)
	writeJSON(w, http.StatusOK, toAuthResponse(res, false))
}

// logout is stateless: tokens are bearer-only and the client discards its copy.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) googleStart(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		writeError(w, http.StatusNotFound, "not_found", "google sign-in is not configured")
		return
	}
	url, state, err := h.Google.AuthCodeURL()
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/v1/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		writeError(w, http.StatusNotFound, "not_found", "google sign-in is not configured")
		return
	}
	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		writeError(w, http.StatusUnauthorized, "oauth_denied", reason)
		return
	}
	state := q.Get("state")
	if cookie, err := r.Cookie(oauthStateCookie); err != nil || cookie.Value != state {
		writeError(w, http.StatusBadRequest, "invalid_state", oauth.ErrInvalidState.Error())
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/v1/auth/google", MaxAge: -1})

	profile, err := h.Google.Exchange(r.Context(), state, q.Get("code"))
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "invalid_state", err.Error())
		case errors.Is(err, oauth.ErrUnverifiedEmail):
			writeError(w, http.StatusForbidden, "unverified_email", err.Error())
		default:
			h.Logger.Warn().Err(err).Msg("google exchange failed")
			writeError(w, http.StatusBadGateway, "oauth_failed", "unable to complete google sign-in")
		}
		return
	}
	res, created, err := h.Accounts.SignInOAuth(r.Context(), profile)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionOAuthLogin)
	writeJSON(w, http.StatusOK, toAuthResponse(res, created))
}

func (h *Handler) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			h.writeDomainError(w, r, err)
			return
		}
		// Delivery failures are logged, never reported, so the response does not reveal accounts.
		h.Logger.Error().Err(err).Msg("password reset request failed")
	}
	observability.RecordAction(observability.ActionPasswordReset)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Accounts.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RouteCheckResponse answers GET /v1/routes/check.
type RouteCheckResponse struct {
	Path  string `json:"path"`
	Guard string `json:"guard"`
	Known bool   `json:"known"`
	auth.Decision
}

// checkRoute evaluates the client route guard for the caller. Anonymous callers pass
// onboarding_seen=true once they have seen the onboarding screens.
func (h *Handler) checkRoute(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if strings.TrimSpace(path) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing path parameter")
		return
	}
	guard, known := auth.Lookup(path)

	var claims *auth.Claims
	seen := queryBool(r, "onboarding_seen")
	if c, ok := auth.FromContext(r.Context()); ok {
		user, err := h.Accounts.Profile(r.Context(), c.Subject)
		switch {
		case err == nil && !user.IsBlocked:
			current := *c
			current.Role = string(user.Role)
			claims = &current
			seen = seen || user.HasSeenOnboarding
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			h.serverError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, RouteCheckResponse{
		Path:     path,
		Guard:    guard.String(),
		Known:    known,
		Decision: auth.Check(guard, claims, seen),
	})
}
