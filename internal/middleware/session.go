package middleware

import (
	"github.com/labstack/echo/v4"

	"iark_app/internal/session"
)

// LoadSession creates a session for every request, resolves the identity and tears it down
// once the handler returns. A failed resolution leaves the visitor anonymous.
// Errors are handed to the error handler before teardown so error pages still see the identity.
func LoadSession(resolver session.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := session.New(resolver)
			_ = s.Init(c.Request().Context(), c)
			session.Attach(c, s)
			defer s.Teardown()

			if err := next(c); err != nil {
				c.Error(err)
			}
			return nil
		}
	}
}
