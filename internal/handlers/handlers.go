// Package handlers holds the echo handlers of the public site, the alumni dashboard,
// the donation API and the back-office.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"iark_app/internal/store"
	"iark_app/web/components"
)

// HomeCacheKey caches the assembled home page data; admin writes delete it
const HomeCacheKey = "iark:home"

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// redirect navigates the browser, through HX-Redirect for HTMX requests and a 303 otherwise
func redirect(c echo.Context, target string) error {
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", target)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Data tidak ditemukan")
	}
	return uint(id), nil
}

func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// localPath accepts only same-site absolute paths, falling back otherwise
func localPath(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

// notFoundOr maps store.ErrNotFound to a 404 with message and anything else to a 500
func notFoundOr(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
}

func breadcrumbs(items ...components.Breadcrumb) templ.Component {
	return components.Breadcrumbs(append([]components.Breadcrumb{{Title: "Beranda", URL: "/"}}, items...))
}
