package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitcoach/internal/domain"
)

func claimsFor(role domain.Role) *Claims {
	scopes := map[string]struct{}{}
	for _, s := range ScopesFor(role) {
		scopes[s] = struct{}{}
	}
	return &Claims{Subject: "u-1", Role: string(role), Scopes: scopes}
}

func TestScopesFor(t *testing.T) {
	require.ElementsMatch(t, []string{ScopeCoursesRead, ScopeProgressWrite, ScopeChatWrite, ScopeNutritionWrite}, ScopesFor(domain.RoleUser))
	require.Contains(t, ScopesFor(domain.RoleModerator), ScopeChatModerate)
	require.NotContains(t, ScopesFor(domain.RoleModerator), ScopeUsersAdmin)
	require.Subset(t, ScopesFor(domain.RoleAdmin), []string{ScopeChatModerate, ScopeUsersAdmin, ScopeCoursesAdmin})
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)
	require.NoError(t, CheckPassword(hash, "secret1"))
	require.Error(t, Hasher{}.Compare(hash, "secret2"))
}

func TestTokenIssuerProducesParsableTokens(t *testing.T) {
	cfg := Config{Secret: "s3cret", Issuer: "fitcoach.test", TTL: time.Hour}
	issuer := NewTokenIssuer(cfg)

	session, err := issuer.IssueToken(domain.User{ID: "u-42", Role: domain.RoleModerator})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	claims, err := ParseClaims(session.Token, cfg)
	require.NoError(t, err)
	require.Equal(t, "u-42", claims.Subject)
	require.Equal(t, "moderator", claims.Role)
	require.True(t, claims.HasScope(ScopeChatModerate))
}

func TestCheckGuards(t *testing.T) {
	user := claimsFor(domain.RoleUser)
	moderator := claimsFor(domain.RoleModerator)
	admin := claimsFor(domain.RoleAdmin)

	cases := []struct {
		name   string
		guard  Guard
		claims *Claims
		seen   bool
		want   Decision
	}{
		{"public anonymous", GuardPublic, nil, false, Decision{Allowed: true}},
		{"authenticated anonymous", GuardAuthenticated, nil, true, Decision{Redirect: "/login"}},
		{"authenticated user", GuardAuthenticated, user, false, Decision{Allowed: true}},
		{"admin anonymous", GuardAdmin, nil, true, Decision{Redirect: "/"}},
		{"admin as user", GuardAdmin, user, true, Decision{Redirect: "/"}},
		{"admin as moderator", GuardAdmin, moderator, true, Decision{Redirect: "/"}},
		{"admin as admin", GuardAdmin, admin, true, Decision{Allowed: true}},
		{"moderation anonymous", GuardModeratorOrAdmin, nil, true, Decision{Redirect: "/"}},
		{"moderation as user", GuardModeratorOrAdmin, user, true, Decision{Redirect: "/"}},
		{"moderation as moderator", GuardModeratorOrAdmin, moderator, true, Decision{Allowed: true}},
		{"moderation as admin", GuardModeratorOrAdmin, admin, true, Decision{Allowed: true}},
		{"home first visit", GuardOnboarding, nil, false, Decision{Redirect: "/onboarding"}},
		{"home returning visitor", GuardOnboarding, nil, true, Decision{Allowed: true}},
		{"home signed in", GuardOnboarding, user, false, Decision{Allowed: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Check(tc.guard, tc.claims, tc.seen))
		})
	}
}

func TestRoleOfAndHasRole(t *testing.T) {
	require.Equal(t, domain.RoleUser, RoleOf(nil))
	require.Equal(t, domain.RoleUser, RoleOf(&Claims{Role: "coach"}))
	require.Equal(t, domain.RoleModerator, RoleOf(claimsFor(domain.RoleModerator)))

	require.False(t, HasRole(nil, domain.RoleUser))
	require.True(t, HasRole(claimsFor(domain.RoleAdmin), domain.RoleModerator, domain.RoleAdmin))
	require.False(t, HasRole(claimsFor(domain.RoleModerator), domain.RoleAdmin))
}

func TestLookupMatchesPatterns(t *testing.T) {
	guard, ok := Lookup("/courses/abc-123")
	require.True(t, ok)
	require.Equal(t, GuardAuthenticated, guard)

	guard, ok = Lookup("/admin/users/")
	require.True(t, ok)
	require.Equal(t, GuardAdmin, guard)

	guard, ok = Lookup("/?utm=1")
	require.True(t, ok)
	require.Equal(t, GuardOnboarding, guard)

	guard, ok = Lookup("/moderator/chat")
	require.True(t, ok)
	require.Equal(t, GuardModeratorOrAdmin, guard)

	guard, ok = Lookup("/forgot-password")
	require.True(t, ok)
	require.Equal(t, GuardPublic, guard)

	_, ok = Lookup("/courses/abc/extra")
	require.False(t, ok)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(domain.RoleModerator, domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rr, req.WithContext(WithClaims(req.Context(), claimsFor(domain.RoleUser))))
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.JSONEq(t, `{"type":"forbidden","detail":"requires role moderator or admin"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(WithClaims(req.Context(), claimsFor(domain.RoleModerator))))
	require.Equal(t, http.StatusNoContent, rr.Code)
}
