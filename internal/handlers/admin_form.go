package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"iark_app/web"
)

// validationError is shown inline on the admin form
type validationError string

func (e validationError) Error() string { return string(e) }

func invalid(format string, args ...interface{}) error {
	return validationError(fmt.Sprintf(format, args...))
}

// field describes one input of an admin form. Kind is one of text, textarea, number,
// checkbox, datetime, image or select.
type field struct {
	Name     string
	Label    string
	Kind     string
	Required bool
	Options  []option
}

type option struct {
	Value string
	Label string
}

// formField is a field with its current value, as the template sees it
type formField struct {
	field
	Value   string
	Checked bool
}

// formValues reads posted values by name; echo.Context.FormValue satisfies it
type formValues func(name string) string

func (f formValues) str(name string) string {
	return strings.TrimSpace(f(name))
}

func (f formValues) required(name, label string) (string, error) {
	v := f.str(name)
	if v == "" {
		return "", invalid("%s wajib diisi.", label)
	}
	return v, nil
}

func (f formValues) boolean(name string) bool {
	switch strings.ToLower(f.str(name)) {
	case "true", "on", "1":
		return true
	}
	return false
}

func (f formValues) number64(name, label string) (int64, error) {
	v := strings.ReplaceAll(f.str(name), ".", "")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, invalid("%s harus berupa angka.", label)
	}
	return n, nil
}

func (f formValues) number(name, label string) (int, error) {
	n, err := f.number64(name, label)
	return int(n), err
}

func (f formValues) optionalUint(name string) *uint {
	n, err := strconv.ParseUint(f.str(name), 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	id := uint(n)
	return &id
}

func (f formValues) datetime(name, label string) (time.Time, error) {
	t, err := f.optionalDatetime(name, label)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, invalid("%s wajib diisi.", label)
	}
	return *t, nil
}

func (f formValues) optionalDatetime(name, label string) (*time.Time, error) {
	v := f.str(name)
	if v == "" {
		return nil, nil
	}
	t, err := web.ParseDateTimeLocal(v)
	if err != nil {
		return nil, invalid("Format %s tidak valid.", strings.ToLower(label))
	}
	return &t, nil
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return ""
}

func timeValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return web.FormatDateTimeLocal(*t)
}

func yesNo(b bool) string {
	if b {
		return "Ya"
	}
	return "Tidak"
}

func uintValue(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

// slugify keeps lowercase letters and digits and joins words with single dashes
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
