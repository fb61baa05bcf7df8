package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Role is the coarse permission level stored on the user row.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may review course chat.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Goal values used by nutrition recommendations.
const (
	GoalWeightLoss    = "weight_loss"
	GoalMuscleGain    = "muscle_gain"
	GoalEndurance     = "endurance"
	GoalFlexibility   = "flexibility"
	GoalOverallHealth = "overall_health"
)

// User is a registered account and its profile.
type User struct {
	ID                string
	Email             string
	Username          string
	FullName          *string
	AvatarURL         *string
	Weight            *float64
	Height            *float64
	Goal              *string
	Role              Role
	IsBlocked         bool
	HasSeenOnboarding bool
	Provider          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProfileUpdate carries the fields a user may change on their own profile. Nil fields are kept.
type ProfileUpdate struct {
	Username  *string
	FullName  *string
	AvatarURL *string
	Weight    *float64
	Height    *float64
	Goal      *string
}

// Validate checks the supplied fields.
func (p ProfileUpdate) Validate() error {
	if p.Username != nil {
		if err := validateUsername(*p.Username); err != nil {
			return err
		}
	}
	if p.Weight != nil && (*p.Weight <= 0 || *p.Weight > 500) {
		return invalid("weight", "must be between 0 and 500 kg")
	}
	if p.Height != nil && (*p.Height <= 0 || *p.Height > 300) {
		return invalid("height", "must be between 0 and 300 cm")
	}
	if p.Goal != nil && *p.Goal != "" && !validGoal(*p.Goal) {
		return invalid("goal", "unknown goal")
	}
	return nil
}

// AdminUserUpdate carries fields an administrator may change on any account.
type AdminUserUpdate struct {
	Username  *string
	FullName  *string
	Role      *Role
	IsBlocked *bool
}

// Validate checks the supplied fields.
func (u AdminUserUpdate) Validate() error {
	if u.Username != nil {
		if err := validateUsername(*u.Username); err != nil {
			return err
		}
	}
	if u.Role != nil && !u.Role.Valid() {
		return invalid("role", "must be user, moderator or admin")
	}
	return nil
}

// Registration is the sign-up form.
type Registration struct {
	Email         string
	Username      string
	Password      string
	CaptchaID     string
	CaptchaAnswer string
}

// Validate enforces the sign-up field rules.
func (r Registration) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validateUsername(r.Username); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

// Credentials is the sign-in form.
type Credentials struct {
	Email         string
	Password      string
	CaptchaID     string
	CaptchaAnswer string
}

// Validate enforces the sign-in field rules.
func (c Credentials) Validate() error {
	if err := validateEmail(c.Email); err != nil {
		return err
	}
	return validatePassword(c.Password)
}

// UserStatus filters accounts by their blocked flag.
type UserStatus string

const (
	UserStatusAll     UserStatus = ""
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// UserFilter narrows the admin user table.
type UserFilter struct {
	Search string
	Role   Role
	Status UserStatus
}

// Match reports whether u passes every set criterion.
func (f UserFilter) Match(u User) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(u.Username), q) && !strings.Contains(strings.ToLower(u.Email), q) {
			return false
		}
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	switch f.Status {
	case UserStatusActive:
		return !u.IsBlocked
	case UserStatusBlocked:
		return u.IsBlocked
	}
	return true
}

// FilterUsers keeps the users matching f, preserving order.
func FilterUsers(users []User, f UserFilter) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if f.Match(u) {
			out = append(out, u)
		}
	}
	return out
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return invalid("email", "is not a valid address")
	}
	return nil
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return invalid("username", "is required")
	}
	if len([]rune(username)) < 3 {
		return invalid("username", "must be at least 3 characters")
	}
	if len([]rune(username)) > 50 {
		return invalid("username", "must be at most 50 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return invalid("password", "is required")
	}
	if len(password) < 6 {
		return invalid("password", "must be at least 6 characters")
	}
	if len(password) > 72 {
		return invalid("password", "must be at most 72 bytes")
	}
	return nil
}

func validGoal(goal string) bool {
	switch goal {
	case GoalWeightLoss, GoalMuscleGain, GoalEndurance, GoalFlexibility, GoalOverallHealth:
		return true
	}
	return false
}
