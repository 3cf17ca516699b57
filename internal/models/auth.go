package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the operator roles accepted by the API.
type UserRole string

const (
	// RoleAdmin may audit and correct courses.
	RoleAdmin UserRole = "ADMIN"
	// RoleAuditor may audit, export and search but never write to the LMS.
	RoleAuditor UserRole = "AUDITOR"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleAuditor
}

// JWTClaims represents the JWT payload for operator access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IssueTokenRequest asks for a signed operator token.
type IssueTokenRequest struct {
	Subject string   `validate:"required"`
	Role    UserRole `validate:"required,oneof=ADMIN AUDITOR"`
}

// IssuedToken is a signed operator token.
type IssuedToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
