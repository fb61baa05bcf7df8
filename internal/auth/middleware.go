package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"example.com/fitcoach/internal/domain"
	authlib "example.com/fitcoach/pkg/platform/auth"
)

// Middleware enforces bearer-token authentication on incoming requests.
type Middleware struct {
	inner authlib.Middleware
}

// NewMiddleware constructs Middleware. Paths reported public by isPublic pass through without a
// token.
func NewMiddleware(cfg Config, isPublic func(r *http.Request) bool) Middleware {
	return Middleware{inner: authlib.NewMiddleware(cfg, authlib.Skipper(isPublic))}
}

// Wrap attaches authentication handling to an http.Handler.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return m.inner.Wrap(next)
}

// RequireRole rejects requests whose claims carry none of roles.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "unauthorized", authlib.ErrMissingToken.Error())
				return
			}
			if !HasRole(claims, roles...) {
				names := make([]string, 0, len(roles))
				for _, role := range roles {
					names = append(names, string(role))
				}
				deny(w, http.StatusForbidden, "forbidden", "requires role "+strings.Join(names, " or "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"type": code, "detail": detail})
}
