package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/session"
	"iark_app/web/components"
)

// CustomErrorHandler renders an error page instead of echo's JSON body.
// API routes keep a JSON {error} body.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errorTitle := "Terjadi Kesalahan"
	errorMessage := ""

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			errorMessage = msg
		}

		switch code {
		case http.StatusNotFound:
			errorTitle = "Halaman Tidak Ditemukan"
			if errorMessage == "" || errorMessage == http.StatusText(http.StatusNotFound) {
				errorMessage = "Halaman yang Anda cari tidak ada atau sudah dihapus."
			}
		case http.StatusForbidden:
			errorTitle = "Akses Ditolak"
			if errorMessage == "" {
				errorMessage = "Anda tidak memiliki akses ke halaman ini."
			}
		case http.StatusUnauthorized:
			errorTitle = "Perlu Masuk"
			if errorMessage == "" {
				errorMessage = "Silakan masuk untuk melanjutkan."
			}
		case http.StatusBadRequest:
			errorTitle = "Permintaan Tidak Valid"
			if errorMessage == "" {
				errorMessage = "Permintaan tidak dapat diproses."
			}
		case http.StatusMethodNotAllowed:
			errorTitle = "Metode Tidak Diizinkan"
		}
	}
	if errorMessage == "" || code >= http.StatusInternalServerError {
		errorMessage = "Terjadi kesalahan. Silakan coba beberapa saat lagi."
	}

	path := c.Request().URL.Path
	entry := log.WithFields(log.Fields{"status": code, "method": c.Request().Method, "path": path})
	if code >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.Debug(err)
	}

	if strings.HasPrefix(path, "/api/") {
		if err := c.JSON(code, map[string]string{"error": errorMessage}); err != nil {
			log.WithError(err).Error("failed to write error response")
		}
		return
	}

	userEmail := ""
	if s := session.From(c); s.LoggedIn() {
		userEmail = s.Identity.Email
	}

	props := components.ErrorPageProps{
		Code:         code,
		ErrorTitle:   errorTitle,
		ErrorMessage: errorMessage,
		Breadcrumbs: []components.Breadcrumb{
			{Title: "Beranda", URL: "/"},
			{Title: errorTitle},
		},
		UserEmail: userEmail,
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)

	var renderErr error
	if isAppPath(path) {
		renderErr = components.ErrorPage(props).Render(c.Request().Context(), c.Response())
	} else {
		renderErr = components.PublicErrorPage(props).Render(c.Request().Context(), c.Response())
	}
	if renderErr != nil {
		log.Error(fmt.Errorf("failed to render error page: %w", renderErr))
		_, _ = c.Response().Write([]byte(errorMessage))
	}
}

// isAppPath reports whether the path belongs to the dashboard or back-office
func isAppPath(path string) bool {
	return strings.HasPrefix(path, "/dashboard") || strings.HasPrefix(path, "/admin")
}
