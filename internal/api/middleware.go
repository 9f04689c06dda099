package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// adminAuth guards operator routes with HTTP basic auth.
func (s *Server) adminAuth() echo.MiddlewareFunc {
	return middleware.BasicAuth(func(user, password string, c echo.Context) (bool, error) {
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.AdminUser)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
		return userOK && passOK, nil
	})
}

// cronAuth guards scheduler routes with a shared bearer key.
func (s *Server) cronAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || s.cfg.CronKey == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.CronKey)) != 1 {
			return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
		}
		return next(c)
	}
}
