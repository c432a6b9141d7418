package session

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role required to use the dashboard.
const RoleAdmin = "ROLE_ADMIN"

// RoleClaims is the subset of the API's token claims the console reads.
type RoleClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Roles decodes the roles claim without verifying the signature; the console cannot
// verify it and the API remains the authority. ok is false for opaque tokens or tokens
// without a roles claim.
func Roles(token string) (roles []string, ok bool) {
	var claims RoleClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, false
	}
	if claims.Roles == nil {
		return nil, false
	}
	return claims.Roles, true
}

// MayUseDashboard reports whether token can be presented to the dashboard.
// Tokens whose roles are unknown are let through for the API to judge.
func MayUseDashboard(token string) bool {
	roles, ok := Roles(token)
	if !ok {
		return true
	}
	return slices.Contains(roles, RoleAdmin)
}
