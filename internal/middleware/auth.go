package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"iark_app/internal/checkout"
	"iark_app/internal/session"
)

// RequireAuth sends anonymous visitors to the login page and back to the requested path afterwards
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !session.From(c).LoggedIn() {
				target := checkout.LoginPath + "?redirectTo=" + url.QueryEscape(c.Request().URL.RequestURI())
				if c.Request().Header.Get("HX-Request") == "true" {
					c.Response().Header().Set("HX-Redirect", target)
					return c.NoContent(http.StatusUnauthorized)
				}
				return c.Redirect(http.StatusSeeOther, target)
			}
			return next(c)
		}
	}
}

// RequireAdmin rejects identities without the admin role. It must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !session.From(c).IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "Halaman ini hanya untuk pengurus.")
			}
			return next(c)
		}
	}
}
