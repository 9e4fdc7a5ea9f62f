package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role gating is a handful of explicit role-string comparisons per
// route group: visitors see nothing but their own account, viewers are
// read-only, only admins manage users, invites, settings and logs.

// RequireRoles allows only the listed roles through
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := GetUserRole(c)
			if !allowed[role] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireWriter rejects mutating methods for read-only roles. Admins
// and users may write; viewers and visitors may not.
func RequireWriter() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isMutating(c.Request().Method) {
				return next(c)
			}

			role := GetUserRole(c)
			if role == "admin" || role == "user" {
				return next(c)
			}

			return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
