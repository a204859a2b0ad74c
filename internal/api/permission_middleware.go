package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/auth"
	"github.com/WoushouW/woushBOT/internal/permissions"
)

// RequirePermission returns middleware that checks the session role holds
// perm. It must run after the guard.
func RequirePermission(perm permissions.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := auth.GetSession(c)
			if sess == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
			}
			if !permissions.ForRole(sess.Role).Has(perm) {
				return echo.NewHTTPError(http.StatusForbidden, "your role is not allowed to open this page")
			}
			return next(c)
		}
	}
}
