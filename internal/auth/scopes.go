package auth

import "example.com/fitcoach/internal/domain"

// Known scopes carried in issued tokens.
const (
	ScopeCoursesRead    = "courses:read"
	ScopeCoursesAdmin   = "courses:admin"
	ScopeProgressWrite  = "progress:write"
	ScopeChatWrite      = "chat:write"
	ScopeChatModerate   = "chat:moderate"
	ScopeNutritionWrite = "nutrition:write"
	ScopeUsersAdmin     = "users:admin"
)

var baseScopes = []string{ScopeCoursesRead, ScopeProgressWrite, ScopeChatWrite, ScopeNutritionWrite}

// ScopesFor returns the scopes granted to role.
func ScopesFor(role domain.Role) []string {
	scopes := append([]string(nil), baseScopes...)
	switch role {
	case domain.RoleModerator:
		scopes = append(scopes, ScopeChatModerate)
	case domain.RoleAdmin:
		scopes = append(scopes, ScopeChatModerate, ScopeUsersAdmin, ScopeCoursesAdmin)
	}
	return scopes
}
