// Package components holds the templ components shared by pages and HTMX partials.
//
// Edit the .templ files and run `templ generate`; the *_templ.go files are generated.
package components

import (
	"strconv"

	"iark_app/internal/checkout"
	"iark_app/internal/models"
)

// CheckoutFormID is the element HTMX swaps when the form changes mode or fails
const CheckoutFormID = "checkout-form"

// AuthChoiceProps drives the login-or-guest fork of the checkout form
type AuthChoiceProps struct {
	LoginAction string
	GuestAction string
	Target      string
}

type CheckoutFormProps struct {
	Form         *checkout.Form
	Action       string
	LoginAction  string
	GuestAction  string
	ChangeAction string
	SiteKey      string
}

// TurnstileProps configures the challenge widget. Enabled false renders the bypass token instead.
type TurnstileProps struct {
	Enabled     bool
	SiteKey     string
	Reset       bool
	BypassToken string
}

// ErrorPageProps describes an error page
type ErrorPageProps struct {
	Code         int
	ErrorTitle   string
	ErrorMessage string
	BackLink     string
	BackText     string
	Breadcrumbs  []Breadcrumb
	UserEmail    string
}

type Breadcrumb struct {
	Title string
	URL   string
}

func alertClass(kind string) string {
	switch kind {
	case "success", "error":
		return "alert alert-" + kind
	default:
		return "alert alert-info"
	}
}

func presetChecked(f *checkout.Form, amount int64) bool {
	return f.CustomAmount == "" && f.PresetAmount == amount
}

// guestNameValue leaves the input empty while the placeholder name is in use
func guestNameValue(f *checkout.Form) string {
	if f.Name == models.AnonymousDonorName {
		return ""
	}
	return f.Name
}

func amountValue(amount int64) string {
	return strconv.FormatInt(amount, 10)
}

func withBackDefaults(props ErrorPageProps, link string) ErrorPageProps {
	if props.BackLink == "" {
		props.BackLink = link
	}
	if props.BackText == "" {
		props.BackText = "Kembali ke beranda"
	}
	return props
}
