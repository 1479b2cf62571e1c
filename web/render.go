// Package web holds the embedded page templates, static assets and the echo renderer.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"iark_app/internal/models"
	"iark_app/internal/session"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the static asset tree rooted at static/
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

var jakarta = loadJakarta()

func loadJakarta() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

var indonesianMonths = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// FormatDate renders 18 Okt 2026 in Jakarta time
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(jakarta)
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// FormatDateTime renders 18 Okt 2026 09:30 WIB
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return FormatDate(t) + " " + t.In(jakarta).Format("15:04") + " WIB"
}

// DateTimeLocal is the value format of <input type="datetime-local">
const DateTimeLocal = "2006-01-02T15:04"

// FormatDateTimeLocal renders t as a datetime-local input value in Jakarta time
func FormatDateTimeLocal(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(jakarta).Format(DateTimeLocal)
}

func inputDateTime(t interface{}) string {
	switch v := t.(type) {
	case time.Time:
		return FormatDateTimeLocal(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return inputDateTime(*v)
	}
	return ""
}

// ParseDateTimeLocal reads a datetime-local input value as Jakarta time
func ParseDateTimeLocal(s string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLocal, strings.TrimSpace(s), jakarta)
}

func renderComponent(c templ.Component) (template.HTML, error) {
	if c == nil {
		return "", nil
	}
	return templ.ToGoHTML(context.Background(), c)
}

var funcs = template.FuncMap{
	"rupiah":        models.FormatRupiah,
	"date":          FormatDate,
	"datetime":      FormatDateTime,
	"inputDatetime": inputDateTime,
	"component":     renderComponent,
	"add":           func(a, b int) int { return a + b },
	"deref": func(t *time.Time) time.Time {
		if t == nil {
			return time.Time{}
		}
		return *t
	},
}

// TemplateRenderer is a custom html/template renderer for Echo.
// Each page is parsed on a clone of the layouts so pages can define their own blocks.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer parses the embedded templates
func NewTemplateRenderer() (*TemplateRenderer, error) {
	templates := make(map[string]*template.Template)

	base, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, err
	}

	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, page); err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[path.Base(page)] = clone
	}

	// standalone templates such as login do not use the base layout
	standalone, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range standalone {
		name := path.Base(page)
		if _, exists := templates[name]; exists {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[name] = t
	}

	return &TemplateRenderer{templates: templates}, nil
}

// Render renders a template document. Map data gets the session identity and current path injected.
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	if dataMap, ok := data.(map[string]interface{}); ok {
		s := session.From(c)
		dataMap["Identity"] = s.Identity
		dataMap["IsAdmin"] = s.IsAdmin()
		dataMap["CurrentPath"] = c.Request().URL.Path
	}

	if tmpl.Lookup("base") != nil {
		return tmpl.ExecuteTemplate(w, "base", data)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}
