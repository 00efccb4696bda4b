package models

import "github.com/golang-jwt/jwt/v5"

// UserRole identifies who is looking at a dashboard.
type UserRole string

const (
	RoleFaculty          UserRole = "faculty"
	RoleInstitutionAdmin UserRole = "institution_admin"
)

// SessionClaims is the JWT payload issued by the institution platform.
type SessionClaims struct {
	UserID        string   `json:"user_id"`
	Role          UserRole `json:"role"`
	InstitutionID string   `json:"institution_id"`
	jwt.RegisteredClaims
}

// Session carries the caller's credentials to whichever component needs them.
// Token is forwarded verbatim to the institution API.
type Session struct {
	Token         string
	InstitutionID string
	UserID        string
	Role          UserRole
}

// Valid reports whether the session can authenticate upstream calls.
func (s Session) Valid() bool {
	return s.Token != "" && s.InstitutionID != ""
}
