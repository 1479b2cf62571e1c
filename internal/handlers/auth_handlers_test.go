package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"

	"iark_app/internal/config"
	"iark_app/internal/services"
)

type fakeIssuer struct {
	verifyErr error
	cookieErr error
	tokens    []string
}

func (f *fakeIssuer) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	f.tokens = append(f.tokens, idToken)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &auth.Token{UID: "uid-1"}, nil
}

func (f *fakeIssuer) SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if f.cookieErr != nil {
		return "", f.cookieErr
	}
	return "session-" + idToken, nil
}

var testFirebase = config.FirebaseConfig{APIKey: "key", AuthDomain: "iark.firebaseapp.com", ProjectID: "iark"}

func TestHandleLogin(t *testing.T) {
	tests := []struct {
		name         string
		issuer       *fakeIssuer
		header       string
		body         string
		wantCode     int
		wantRedirect string
	}{
		{
			name:         "bearer token",
			issuer:       &fakeIssuer{},
			header:       "Bearer tok",
			body:         `{"redirectTo":"/donasi/zakat"}`,
			wantCode:     http.StatusOK,
			wantRedirect: "/donasi/zakat",
		},
		{
			name:         "token in body, offsite redirect ignored",
			issuer:       &fakeIssuer{},
			body:         `{"id_token":"tok","redirectTo":"https://evil.example"}`,
			wantCode:     http.StatusOK,
			wantRedirect: "/dashboard",
		},
		{name: "malformed header", issuer: &fakeIssuer{}, header: "Token tok", body: `{}`, wantCode: http.StatusUnauthorized},
		{name: "missing token", issuer: &fakeIssuer{}, body: `{}`, wantCode: http.StatusUnauthorized},
		{name: "rejected token", issuer: &fakeIssuer{verifyErr: errors.New("expired")}, header: "Bearer tok", body: `{}`, wantCode: http.StatusUnauthorized},
		{name: "cookie failure", issuer: &fakeIssuer{cookieErr: errors.New("quota")}, header: "Bearer tok", body: `{}`, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(t)
			h := NewAuthHandler(tt.issuer, nil, testFirebase, false)
			e.POST("/auth/login", h.HandleLogin)

			req := jsonRequest("/auth/login", tt.body)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(e, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d; want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["redirect"] != tt.wantRedirect {
				t.Errorf("redirect = %q; want %q", body["redirect"], tt.wantRedirect)
			}
			cookie := rec.Header().Get("Set-Cookie")
			if !strings.Contains(cookie, services.SessionCookieName+"=session-tok") || !strings.Contains(cookie, "HttpOnly") {
				t.Errorf("session cookie = %q", cookie)
			}
		})
	}
}

func TestHandleLoginWithoutFirebase(t *testing.T) {
	e := newTestServer(t)
	h := NewAuthHandler(nil, nil, config.FirebaseConfig{}, false)
	e.POST("/auth/login", h.HandleLogin)
	e.GET("/masuk", h.LoginPage)

	rec := serve(e, jsonRequest("/auth/login", `{"id_token":"tok"}`))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want 503", rec.Code)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/masuk?redirectTo=/acara/3", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `data-redirect="/acara/3"`) {
		t.Errorf("login page: %d", rec.Code)
	}
}

func TestHandleLogout(t *testing.T) {
	e := newTestServer(t)
	h := NewAuthHandler(&fakeIssuer{}, nil, testFirebase, false)
	e.POST("/auth/logout", h.HandleLogout)

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Errorf("cookie not cleared: %q", rec.Header().Get("Set-Cookie"))
	}
}
