package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/models"
	"iark_app/internal/services"
	"iark_app/internal/session"
	"iark_app/web/components"
)

// DashboardStore is the part of the store the alumni dashboard uses
type DashboardStore interface {
	ListDonationsByProfile(ctx context.Context, profileID uint) ([]models.Donation, error)
	ListRegistrationsByProfile(ctx context.Context, profileID uint) ([]models.EventRegistration, error)
	UpdateProfileContact(ctx context.Context, id uint, fullName, phone string) error
}

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	store DashboardStore
	cache *services.RedisCache
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(store DashboardStore, cache *services.RedisCache) *DashboardHandler {
	return &DashboardHandler{store: store, cache: cache}
}

// Dashboard renders the alumni's donations and event registrations
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	identity := session.From(c).Identity

	donations, err := h.store.ListDonationsByProfile(ctx, identity.ProfileID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	registrations, err := h.store.ListRegistrationsByProfile(ctx, identity.ProfileID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	data := map[string]interface{}{
		"Donations":     donations,
		"Registrations": registrations,
		"Breadcrumbs":   breadcrumbs(components.Breadcrumb{Title: "Dashboard"}),
	}
	if c.QueryParam("status") == "tersimpan" {
		data["Flash"] = "Profil berhasil disimpan."
		data["FlashKind"] = "success"
	}
	return c.Render(http.StatusOK, "dashboard.html", data)
}

// UpdateProfile saves the self-editable profile fields
func (h *DashboardHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	identity := session.From(c).Identity

	name := strings.TrimSpace(c.FormValue("full_name"))
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Nama wajib diisi.")
	}
	phone := strings.TrimSpace(c.FormValue("phone"))

	if err := h.store.UpdateProfileContact(ctx, identity.ProfileID, name, phone); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	if err := h.cache.Delete(ctx, services.IdentityCacheKey(identity.FirebaseUID)); err != nil {
		log.WithError(err).Warn("dashboard: failed to drop cached identity")
	}
	return redirect(c, "/dashboard?status=tersimpan")
}
