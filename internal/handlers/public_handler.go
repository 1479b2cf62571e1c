package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/listing"
	"iark_app/internal/models"
	"iark_app/internal/services"
	"iark_app/internal/session"
	"iark_app/internal/store"
	"iark_app/web/components"
)

const (
	homeCacheTTL    = 5 * time.Minute
	homeEventsLimit = 3
	eventsPageSize  = 12
)

// PublicStore is the part of the store the public pages read
type PublicStore interface {
	ActiveHeroSlides(ctx context.Context) ([]models.HeroSlide, error)
	PublishedTestimonials(ctx context.Context) ([]models.Testimonial, error)
	ListUpcomingEvents(ctx context.Context, now time.Time, limit int) ([]models.Event, error)
	ListPublishedEvents(ctx context.Context) ([]models.Event, error)
	FindPublishedEvent(ctx context.Context, id uint) (*models.Event, error)
	CountRegistrations(ctx context.Context, eventID uint) (int64, error)
	FindRegistration(ctx context.Context, eventID, profileID uint) (*models.EventRegistration, error)
	RegisterForEvent(ctx context.Context, event *models.Event, profileID uint) (*models.EventRegistration, error)
	ListCampaignsWithTotals(ctx context.Context, activeOnly bool) ([]models.CampaignWithTotal, error)
	ListManagement(ctx context.Context) ([]models.ManagementMember, error)
	ListDormitories(ctx context.Context) ([]models.Dormitory, error)
}

// HomeData is everything the home page shows; it is cached as a whole
type HomeData struct {
	Slides       []models.HeroSlide         `json:"slides"`
	Events       []models.Event             `json:"events"`
	Campaigns    []models.CampaignWithTotal `json:"campaigns"`
	Testimonials []models.Testimonial       `json:"testimonials"`
	Management   []models.ManagementMember  `json:"management"`
	Dormitories  []models.Dormitory         `json:"dormitories"`
}

type PublicHandler struct {
	store PublicStore
	cache *services.RedisCache
	now   func() time.Time
}

func NewPublicHandler(store PublicStore, cache *services.RedisCache) *PublicHandler {
	return &PublicHandler{store: store, cache: cache, now: time.Now}
}

// Home renders the landing page
func (h *PublicHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()
	home, err := services.GetOrSet(h.cache, ctx, HomeCacheKey, homeCacheTTL, func() (HomeData, error) {
		return h.loadHome(ctx)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.Render(http.StatusOK, "home.html", map[string]interface{}{"Home": home})
}

func (h *PublicHandler) loadHome(ctx context.Context) (HomeData, error) {
	var home HomeData
	var err error
	if home.Slides, err = h.store.ActiveHeroSlides(ctx); err != nil {
		return home, err
	}
	if home.Events, err = h.store.ListUpcomingEvents(ctx, h.now(), homeEventsLimit); err != nil {
		return home, err
	}
	if home.Campaigns, err = h.store.ListCampaignsWithTotals(ctx, true); err != nil {
		return home, err
	}
	if home.Testimonials, err = h.store.PublishedTestimonials(ctx); err != nil {
		return home, err
	}
	if home.Management, err = h.store.ListManagement(ctx); err != nil {
		return home, err
	}
	if home.Dormitories, err = h.store.ListDormitories(ctx); err != nil {
		return home, err
	}
	return home, nil
}

// Events lists published events with search and pagination
func (h *PublicHandler) Events(c echo.Context) error {
	events, err := h.store.ListPublishedEvents(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	query := c.QueryParam("q")
	filtered := listing.Search(events, query, func(e models.Event) []string {
		return []string{e.Title, e.Location, e.Description}
	})

	return c.Render(http.StatusOK, "events.html", map[string]interface{}{
		"Page":        listing.Paginate(filtered, pageParam(c), eventsPageSize),
		"Query":       query,
		"Breadcrumbs": breadcrumbs(components.Breadcrumb{Title: "Acara"}),
	})
}

// EventDetail renders one event. Unknown or unpublished ids render the not-found page.
func (h *PublicHandler) EventDetail(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	event, err := h.store.FindPublishedEvent(ctx, id)
	if err != nil {
		return notFoundOr(err, "Acara tidak ditemukan.")
	}

	count, err := h.store.CountRegistrations(ctx, event.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	registered := false
	if s := session.From(c); s.LoggedIn() {
		reg, err := h.store.FindRegistration(ctx, event.ID, s.Identity.ProfileID)
		if err == nil {
			registered = reg.Status == models.RegistrationStatusRegistered
		} else if !errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
		}
	}

	data := map[string]interface{}{
		"Event":        event,
		"Registered":   count,
		"IsRegistered": registered,
		"Full":         event.Capacity > 0 && count >= int64(event.Capacity),
		"Breadcrumbs": breadcrumbs(
			components.Breadcrumb{Title: "Acara", URL: "/acara"},
			components.Breadcrumb{Title: event.Title},
		),
	}
	if flash := c.QueryParam("status"); flash == "terdaftar" {
		data["Flash"] = "Pendaftaran berhasil. Sampai jumpa di acara!"
		data["FlashKind"] = "success"
	}
	return c.Render(http.StatusOK, "event_detail.html", data)
}

// RegisterEvent registers the logged-in alumni for an event
func (h *PublicHandler) RegisterEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	identity := session.From(c).Identity

	event, err := h.store.FindPublishedEvent(ctx, id)
	if err != nil {
		return notFoundOr(err, "Acara tidak ditemukan.")
	}

	if _, err := h.store.RegisterForEvent(ctx, event, identity.ProfileID); err != nil {
		if errors.Is(err, store.ErrEventFull) {
			return echo.NewHTTPError(http.StatusConflict, "Kuota acara sudah penuh.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	log.WithFields(log.Fields{"event_id": event.ID, "profile_id": identity.ProfileID}).Info("Event registration")
	return redirect(c, "/acara/"+c.Param("id")+"?status=terdaftar")
}

// Campaigns lists the active donation campaigns
func (h *PublicHandler) Campaigns(c echo.Context) error {
	campaigns, err := h.store.ListCampaignsWithTotals(c.Request().Context(), true)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.Render(http.StatusOK, "campaigns.html", map[string]interface{}{
		"Campaigns":   campaigns,
		"Breadcrumbs": breadcrumbs(components.Breadcrumb{Title: "Donasi"}),
	})
}
