package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"iark_app/internal/session"
)

type staticResolver struct {
	identity *session.Identity
	err      error
}

func (r staticResolver) Resolve(ctx context.Context, c echo.Context) (*session.Identity, error) {
	return r.identity, r.err
}

func newServer(resolver session.Resolver) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = CustomErrorHandler
	e.Use(LoadSession(resolver))
	return e
}

func TestLoadSessionAttachesAndTearsDown(t *testing.T) {
	var seen *session.Session
	e := newServer(staticResolver{identity: &session.Identity{ProfileID: 7, Name: "Ani"}})
	e.GET("/", func(c echo.Context) error {
		seen = session.From(c)
		if !seen.LoggedIn() || seen.Identity.ProfileID != 7 {
			t.Errorf("identity not resolved: %+v", seen.Identity)
		}
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil {
		t.Fatal("handler did not run")
	}
	if seen.LoggedIn() {
		t.Error("identity should be dropped after the request")
	}
}

func TestLoadSessionResolverErrorIsAnonymous(t *testing.T) {
	e := newServer(staticResolver{err: errors.New("firebase down")})
	e.GET("/", func(c echo.Context) error {
		if session.From(c).LoggedIn() {
			t.Error("failed resolution should be anonymous")
		}
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		identity   *session.Identity
		htmx       bool
		wantStatus int
		wantHeader string
	}{
		{name: "anonymous redirected", wantStatus: http.StatusSeeOther, wantHeader: "Location"},
		{name: "anonymous htmx", htmx: true, wantStatus: http.StatusUnauthorized, wantHeader: "HX-Redirect"},
		{name: "logged in passes", identity: &session.Identity{ProfileID: 1}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newServer(staticResolver{identity: tt.identity})
			e.GET("/dashboard", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireAuth())

			req := httptest.NewRequest(http.MethodGet, "/dashboard?tab=donasi", nil)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantHeader != "" {
				want := "/masuk?redirectTo=%2Fdashboard%3Ftab%3Ddonasi"
				if got := rec.Header().Get(tt.wantHeader); got != want {
					t.Errorf("%s = %q; want %q", tt.wantHeader, got, want)
				}
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	e := newServer(staticResolver{identity: &session.Identity{ProfileID: 1}})
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireAuth(), RequireAdmin())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d; want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Akses Ditolak") {
		t.Errorf("error page missing title:\n%s", rec.Body.String())
	}
}

func TestCustomErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		err         error
		wantStatus  int
		wantContent string
	}{
		{"public not found", "/acara/99", echo.NewHTTPError(http.StatusNotFound, "Acara tidak ditemukan"), http.StatusNotFound, "Acara tidak ditemukan"},
		{"default not found text", "/nope", echo.ErrNotFound, http.StatusNotFound, "Halaman Tidak Ditemukan"},
		{"internal error hides detail", "/dashboard", errors.New("pq: connection refused"), http.StatusInternalServerError, "Terjadi kesalahan"},
		{"api gets json", "/api/donations/x/status", echo.NewHTTPError(http.StatusNotFound, "Donasi tidak ditemukan"), http.StatusNotFound, `{"error":"Donasi tidak ditemukan"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newServer(nil)
			e.GET(tt.path, func(c echo.Context) error { return tt.err })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.wantContent) {
				t.Errorf("body missing %q:\n%s", tt.wantContent, body)
			}
			if strings.Contains(body, "pq:") {
				t.Error("internal error detail leaked")
			}
		})
	}
}
