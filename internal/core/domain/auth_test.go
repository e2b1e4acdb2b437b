package domain

import "testing"

func TestRoleIsValid(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleTeacher, true},
		{RoleStudent, true},
		{Role("member"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if tt.role.IsValid() != tt.expected {
				t.Errorf("expected IsValid() = %v for role %q", tt.expected, tt.role)
			}
		})
	}
}

func TestAuthContextPermissions(t *testing.T) {
	tests := []struct {
		role      Role
		admin     bool
		canManage bool
	}{
		{RoleAdmin, true, true},
		{RoleTeacher, false, true},
		{RoleStudent, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := &AuthContext{Role: tt.role}
			if ctx.IsAdmin() != tt.admin {
				t.Errorf("expected IsAdmin() = %v for role %s", tt.admin, tt.role)
			}
			if ctx.CanManage() != tt.canManage {
				t.Errorf("expected CanManage() = %v for role %s", tt.canManage, tt.role)
			}
		})
	}
}

func TestTokenClaimsAuthContext(t *testing.T) {
	claims := &TokenClaims{
		UserID:   "user-1",
		Email:    "t@example.com",
		Role:     RoleTeacher,
		CourseID: "course-9",
	}

	ac := claims.AuthContext()
	if ac.UserID != "user-1" || ac.Email != "t@example.com" {
		t.Errorf("unexpected identity: %+v", ac)
	}
	if ac.Role != RoleTeacher || ac.CourseID != "course-9" {
		t.Errorf("unexpected role/course: %+v", ac)
	}
}
