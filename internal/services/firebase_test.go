package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"iark_app/internal/models"
)

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (v fakeVerifier) VerifySessionCookie(ctx context.Context, cookie string) (*auth.Token, error) {
	return v.token, v.err
}

type fakeProfiles struct {
	calls int
}

func (p *fakeProfiles) UpsertProfile(ctx context.Context, uid, email, name string) (*models.Profile, error) {
	p.calls++
	return &models.Profile{ID: 9, FirebaseUID: uid, Email: email, FullName: name, Role: models.RoleAdmin}, nil
}

func requestWithCookie(value string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: value})
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestFirebaseResolver(t *testing.T) {
	profiles := &fakeProfiles{}
	r := &FirebaseResolver{
		Verifier: fakeVerifier{token: &auth.Token{UID: "uid-1", Claims: map[string]interface{}{"email": "ani@example.com", "name": "Ani"}}},
		Profiles: profiles,
	}

	c, _ := requestWithCookie("cookie")
	identity, err := r.Resolve(context.Background(), c)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if identity.ProfileID != 9 || identity.Email != "ani@example.com" || identity.Name != "Ani" || !identity.IsAdmin {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if profiles.calls != 1 {
		t.Fatalf("expected one upsert, got %d", profiles.calls)
	}
}

func TestFirebaseResolverAnonymous(t *testing.T) {
	r := &FirebaseResolver{Verifier: fakeVerifier{err: errors.New("expired")}, Profiles: &fakeProfiles{}}

	c, _ := requestWithCookie("")
	if identity, err := r.Resolve(context.Background(), c); identity != nil || err != nil {
		t.Fatalf("expected anonymous without cookie, got %+v, %v", identity, err)
	}

	c, rec := requestWithCookie("stale")
	if identity, err := r.Resolve(context.Background(), c); identity != nil || err != nil {
		t.Fatalf("expected anonymous with invalid cookie, got %+v, %v", identity, err)
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Fatal("expected invalid cookie to be cleared")
	}

	var nilResolver *FirebaseResolver
	if identity, err := nilResolver.Resolve(context.Background(), c); identity != nil || err != nil {
		t.Fatal("nil resolver should be anonymous")
	}
}
