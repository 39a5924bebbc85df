package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Capability names. These are the four clinic roles; a caller's JWT carries
// the roles it holds and the check below is a pure function over them.
const (
	CapAdmin   = "admin"
	CapDoctor  = "doctor"
	CapNurse   = "nurse"
	CapPatient = "patient"
)

// HasCapability reports whether the role set grants the required capability.
// Admin is a superset of every capability.
func HasCapability(roles []string, required string) bool {
	for _, r := range roles {
		if r == required || r == CapAdmin {
			return true
		}
	}
	return false
}

// Check verifies the caller in ctx holds the required capability.
func Check(ctx context.Context, required string) bool {
	return HasCapability(RolesFromContext(ctx), required)
}

// RequireRole returns middleware that rejects requests whose caller holds none
// of the given roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				if HasCapability(userRoles, required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
