package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"google.golang.org/api/option"

	"iark_app/internal/config"
	"iark_app/internal/models"
	"iark_app/internal/session"
)

const (
	SessionCookieName = "session"
	SessionDuration   = 5 * 24 * time.Hour

	identityCacheTTL = 5 * time.Minute
)

// InitFirebase initializes the Firebase Admin SDK and returns an auth client
func InitFirebase(ctx context.Context, cfg config.FirebaseConfig) (*auth.Client, error) {
	opts := []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsPath)}
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// SessionVerifier is satisfied by *auth.Client
type SessionVerifier interface {
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
}

// ProfileUpserter links a Firebase account to its profile row
type ProfileUpserter interface {
	UpsertProfile(ctx context.Context, uid, email, name string) (*models.Profile, error)
}

// FirebaseResolver resolves the session cookie into an Identity
type FirebaseResolver struct {
	Verifier SessionVerifier
	Profiles ProfileUpserter
	Cache    *RedisCache
}

// IdentityCacheKey is the cache key of a resolved identity
func IdentityCacheKey(uid string) string {
	return "iark:identity:" + uid
}

// Resolve returns nil, nil when there is no usable session cookie
func (r *FirebaseResolver) Resolve(ctx context.Context, c echo.Context) (*session.Identity, error) {
	if r == nil || r.Verifier == nil {
		return nil, nil
	}
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	token, err := r.Verifier.VerifySessionCookie(ctx, cookie.Value)
	if err != nil {
		ClearSessionCookie(c)
		return nil, nil
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if email == "" {
		return nil, errors.New("session token has no email claim")
	}

	return GetOrSet(r.Cache, ctx, IdentityCacheKey(token.UID), identityCacheTTL, func() (*session.Identity, error) {
		profile, err := r.Profiles.UpsertProfile(ctx, token.UID, email, name)
		if err != nil {
			return nil, fmt.Errorf("upsert profile: %w", err)
		}
		return &session.Identity{
			ProfileID:   profile.ID,
			FirebaseUID: token.UID,
			Email:       profile.Email,
			Name:        profile.FullName,
			Phone:       profile.Phone,
			IsAdmin:     profile.IsAdmin(),
		}, nil
	})
}

// SetSessionCookie stores a Firebase session cookie on the response
func SetSessionCookie(c echo.Context, value string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
}
