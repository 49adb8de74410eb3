package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avdeyev/tokensmith/internal/common"
)

// Context keys set by BearerAuth for downstream handlers.
const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
)

// BearerAuth verifies the access token from the Authorization header and
// stashes the subject claims into the echo context. Requests without a valid
// bearer token get 401.
func BearerAuth(core AuthCore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(common.AuthHeaderName)
			if !strings.HasPrefix(header, common.BearerPrefix) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			token := strings.TrimPrefix(header, common.BearerPrefix)

			res := core.ValidateToken(c.Request().Context(), token)
			if !res.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(ctxUserID, res.UserID)
			c.Set(ctxEmail, res.Email)
			return next(c)
		}
	}
}
