package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleProctor UserRole = "proctor"
	RoleAdmin   UserRole = "admin"
)

// User is the identity resolved from the auth provider. It is not persisted here.
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	Groups   []string `json:"groups,omitempty"`

	AvatarURL     *string `json:"avatar_url,omitempty"`
	EmailVerified bool    `json:"email_verified"`
}

// IsStaff reports whether the user previews quizzes rather than attempting them.
func (u *User) IsStaff() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

// AllModels lists every persisted model, in migration order.
func AllModels() []interface{} {
	return []interface{}{&Quiz{}, &QuizOverride{}, &QuizAttempt{}}
}
