package session

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("api-signing-key"))
	require.NoError(t, err)
	return token
}

func TestRoles(t *testing.T) {
	token := signedToken(t, RoleClaims{Roles: []string{RoleAdmin}})

	roles, ok := Roles(token)
	assert.True(t, ok)
	assert.Equal(t, []string{RoleAdmin}, roles)
}

func TestRoles_OpaqueToken(t *testing.T) {
	roles, ok := Roles("T1")
	assert.False(t, ok)
	assert.Nil(t, roles)
}

func TestRoles_NoRolesClaim(t *testing.T) {
	token := signedToken(t, jwt.RegisteredClaims{Subject: "admin@uam.edu"})

	_, ok := Roles(token)
	assert.False(t, ok)
}

func TestMayUseDashboard(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"opaque token", "T1", true},
		{"admin", signedToken(t, RoleClaims{Roles: []string{RoleAdmin}}), true},
		{"admin among others", signedToken(t, RoleClaims{Roles: []string{"ROLE_USER", RoleAdmin}}), true},
		{"egresado only", signedToken(t, RoleClaims{Roles: []string{"ROLE_USER"}}), false},
		{"empty roles", signedToken(t, RoleClaims{Roles: []string{}}), false},
		{"no roles claim", signedToken(t, jwt.RegisteredClaims{Subject: "x"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MayUseDashboard(tt.token))
		})
	}
}
