package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/config"
	"iark_app/internal/services"
)

// SessionIssuer is satisfied by *auth.Client
type SessionIssuer interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	issuer   SessionIssuer
	cache    *services.RedisCache
	firebase config.FirebaseConfig
	secure   bool
}

// NewAuthHandler creates a new AuthHandler. A nil issuer disables login.
func NewAuthHandler(issuer SessionIssuer, cache *services.RedisCache, firebase config.FirebaseConfig, secure bool) *AuthHandler {
	return &AuthHandler{issuer: issuer, cache: cache, firebase: firebase, secure: secure}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(c echo.Context) error {
	data := map[string]interface{}{
		"Enabled":    h.issuer != nil && h.firebase.APIKey != "",
		"RedirectTo": localPath(c.QueryParam("redirectTo"), "/dashboard"),
		"FirebaseConfig": map[string]string{
			"apiKey":     h.firebase.APIKey,
			"authDomain": h.firebase.AuthDomain,
			"projectId":  h.firebase.ProjectID,
		},
	}
	return c.Render(http.StatusOK, "login.html", data)
}

type loginRequest struct {
	IDToken    string `json:"id_token" form:"id_token"`
	RedirectTo string `json:"redirectTo" form:"redirectTo"`
}

// HandleLogin verifies the Firebase ID token and creates a session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.issuer == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "Login belum dikonfigurasi",
		})
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Permintaan tidak valid"})
	}

	// ID token from the Authorization header, or the body as a fallback
	tokenString := req.IDToken
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "Format otorisasi tidak valid",
			})
		}
	}
	if tokenString == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Token tidak ditemukan",
		})
	}

	ctx := c.Request().Context()
	token, err := h.issuer.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Token tidak valid",
		})
	}

	cookieValue, err := h.issuer.SessionCookie(ctx, tokenString, services.SessionDuration)
	if err != nil {
		log.WithError(err).WithField("uid", token.UID).Error("auth: failed to create session cookie")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Gagal membuat sesi",
		})
	}
	services.SetSessionCookie(c, cookieValue, h.secure)

	// profile fields may have changed since the identity was cached
	if err := h.cache.Delete(ctx, services.IdentityCacheKey(token.UID)); err != nil {
		log.WithError(err).Warn("auth: failed to drop cached identity")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "success",
		"redirect": localPath(req.RedirectTo, "/dashboard"),
	})
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	services.ClearSessionCookie(c)
	return redirect(c, "/")
}
