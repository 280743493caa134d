package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// RoleAnalyst may score and list companies.
	RoleAnalyst = "analyst"
	// RoleOperator may also trigger ranking runs.
	RoleOperator = "operator"
)

// Claims is the token body: registered claims plus a role list.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// HasRole reports whether role was granted.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether at least one of roles was granted. An empty
// roles list grants nothing.
func (c Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}
