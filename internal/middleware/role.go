package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/omraut/carbon-terminal/internal/model"
)

// RequireRole aborts with 403 unless the authenticated role is one of the
// allowed set. It assumes JWTAuth already ran and stored the role in the
// context.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(model.Role)
			if !ok || !role.Allowed(roles...) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
