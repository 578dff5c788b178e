package auth

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role is the flat role claim carried by an identity. Roles form a closed
// set with no hierarchy: admin does not satisfy a doctor check.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleDoctor    Role = "doctor"
	RolePatient   Role = "patient"
)

var knownRoles = map[Role]bool{
	RoleAdmin:     true,
	RoleModerator: true,
	RoleDoctor:    true,
	RolePatient:   true,
}

// ParseRole validates a role claim.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !knownRoles[r] {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool { return knownRoles[r] }

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Permit reports whether the identity holds exactly the required role.
// A nil identity is never permitted.
func Permit(id *Identity, required Role) bool {
	if id == nil || id.ID == "" {
		return false
	}
	return id.Role == required
}

// RequireRole rejects requests whose identity does not hold the role. It
// answers 401 when no identity is present and 403 when the role differs, and
// uses the same Permit check the services apply to data access.
func RequireRole(required Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if !Permit(id, required) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("required role: %s", required))
			}
			return next(c)
		}
	}
}
