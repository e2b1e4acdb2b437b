package domain

// Role defines a caller's permission level
type Role string

const (
	RoleAdmin   Role = "admin"   // Everything a teacher can, plus bulk deletes
	RoleTeacher Role = "teacher" // Manage course materials and references, delete submissions and courses
	RoleStudent Role = "student" // Register submission files and run checks; reads are not scoped by owner
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// AuthContext contains authenticated caller info for request context.
// Tokens are issued elsewhere; this service only verifies them.
type AuthContext struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	CourseID string `json:"course_id,omitempty"`
}

// IsAdmin checks if the caller is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage reports whether the caller may run destructive operations
// such as deleting submissions or registering external references.
func (a *AuthContext) CanManage() bool {
	return a.Role == RoleAdmin || a.Role == RoleTeacher
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CourseID  string `json:"course_id,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// AuthContext converts verified claims into a request auth context.
func (c *TokenClaims) AuthContext() *AuthContext {
	return &AuthContext{
		UserID:   c.UserID,
		Email:    c.Email,
		Role:     c.Role,
		CourseID: c.CourseID,
	}
}
