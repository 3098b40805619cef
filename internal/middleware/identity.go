package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Identity resolution happens upstream of this service; the gateway injects
// the resolved user id as a header and the engine trusts it as given.
const userIDHeader = "X-User-ID"

type IdentityMiddleware struct{}

func NewIdentityMiddleware() *IdentityMiddleware {
	return &IdentityMiddleware{}
}

func (m *IdentityMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := c.Request().Header.Get(userIDHeader)
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		c.Set("uid", uid)
		return next(c)
	}
}
