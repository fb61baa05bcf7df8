package auth

import (
	"strings"

	"example.com/fitcoach/internal/domain"
)

// Guard names the access rule protecting a client route.
type Guard int

const (
	GuardPublic Guard = iota
	GuardAuthenticated
	GuardAdmin
	GuardModeratorOrAdmin
	GuardOnboarding
)

func (g Guard) String() string {
	switch g {
	case GuardAuthenticated:
		return "authenticated"
	case GuardAdmin:
		return "admin"
	case GuardModeratorOrAdmin:
		return "moderator_or_admin"
	case GuardOnboarding:
		return "onboarding"
	default:
		return "public"
	}
}

// Decision is the outcome of a guard check. Redirect is set when Allowed is false.
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

// Check evaluates guard for the viewer. claims is nil for anonymous and blocked viewers.
// Role-gated routes send anyone without the role, signed in or not, home.
func Check(guard Guard, claims *Claims, seenOnboarding bool) Decision {
	switch guard {
	case GuardAuthenticated:
		if claims == nil {
			return Decision{Redirect: "/login"}
		}
	case GuardAdmin:
		if !HasRole(claims, domain.RoleAdmin) {
			return Decision{Redirect: "/"}
		}
	case GuardModeratorOrAdmin:
		if claims == nil || !RoleOf(claims).CanModerate() {
			return Decision{Redirect: "/"}
		}
	case GuardOnboarding:
		if claims == nil && !seenOnboarding {
			return Decision{Redirect: "/onboarding"}
		}
	}
	return Decision{Allowed: true}
}

// Route pairs a client path pattern with its guard.
type Route struct {
	Pattern string
	Guard   Guard
}

// RouteTable lists the client routes. Segments starting with ':' match any single segment.
var RouteTable = []Route{
	{Pattern: "/", Guard: GuardOnboarding},
	{Pattern: "/login", Guard: GuardPublic},
	{Pattern: "/register", Guard: GuardPublic},
	{Pattern: "/onboarding", Guard: GuardPublic},
	{Pattern: "/forgot-password", Guard: GuardPublic},
	// Landing page of the emailed reset link.
	{Pattern: "/reset-password", Guard: GuardPublic},
	{Pattern: "/profile", Guard: GuardAuthenticated},
	{Pattern: "/courses", Guard: GuardAuthenticated},
	{Pattern: "/courses/:id", Guard: GuardAuthenticated},
	{Pattern: "/workout/:id", Guard: GuardAuthenticated},
	{Pattern: "/chat", Guard: GuardAuthenticated},
	{Pattern: "/admin/users", Guard: GuardAdmin},
	{Pattern: "/admin/courses", Guard: GuardAdmin},
	{Pattern: "/moderator/chat", Guard: GuardModeratorOrAdmin},
}

// Lookup returns the guard for path. Unknown paths are public.
func Lookup(path string) (Guard, bool) {
	segments := splitPath(path)
	for _, route := range RouteTable {
		if matchSegments(splitPath(route.Pattern), segments) {
			return route.Guard, true
		}
	}
	return GuardPublic, false
}

func splitPath(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}
