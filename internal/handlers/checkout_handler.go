package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/checkout"
	"iark_app/internal/models"
	"iark_app/internal/session"
	"iark_app/web/components"
)

const (
	checkoutCookieName = "checkout_sid"
	recentDonorsLimit  = 10
)

// CampaignReader is the part of the store the checkout page reads
type CampaignReader interface {
	FindActiveCampaignBySlug(ctx context.Context, slug string) (*models.Campaign, error)
	CampaignCollected(ctx context.Context, campaignID uint) (int64, error)
	RecentPaidDonations(ctx context.Context, campaignID uint, limit int) ([]models.Donation, error)
}

// CheckoutHandler serves the campaign checkout page and its HTMX transitions.
// The form is rebuilt on every request from the remembered mode and the posted fields.
type CheckoutHandler struct {
	campaigns        CampaignReader
	modes            checkout.ModeStore
	creator          checkout.Creator
	challengeEnabled bool
	siteKey          string
	secure           bool
}

func NewCheckoutHandler(campaigns CampaignReader, modes checkout.ModeStore, creator checkout.Creator, challengeEnabled bool, siteKey string, secure bool) *CheckoutHandler {
	return &CheckoutHandler{
		campaigns:        campaigns,
		modes:            modes,
		creator:          creator,
		challengeEnabled: challengeEnabled,
		siteKey:          siteKey,
		secure:           secure,
	}
}

func checkoutPath(slug string) string {
	return "/donasi/" + slug
}

// sessionID returns the checkout session id, issuing a new cookie when the visitor has none
func (h *CheckoutHandler) sessionID(c echo.Context) string {
	if cookie, err := c.Cookie(checkoutCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     checkoutCookieName,
		Value:    id,
		MaxAge:   int(checkout.ModeTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		Path:     "/donasi",
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *CheckoutHandler) loadCampaign(c echo.Context) (*models.Campaign, error) {
	campaign, err := h.campaigns.FindActiveCampaignBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return nil, notFoundOr(err, "Program donasi tidak ditemukan.")
	}
	return campaign, nil
}

// form rebuilds the checkout form for the current visitor
func (h *CheckoutHandler) form(c echo.Context, campaign *models.Campaign) (*checkout.Form, string) {
	sid := h.sessionID(c)
	stored, err := h.modes.Get(c.Request().Context(), sid, campaign.ID)
	if err != nil {
		log.WithError(err).Warn("checkout: failed to read stored mode")
	}
	return checkout.NewForm(campaign.ID, session.From(c).Identity, stored, h.challengeEnabled), sid
}

func (h *CheckoutHandler) component(slug string, f *checkout.Form) components.CheckoutFormProps {
	base := checkoutPath(slug)
	return components.CheckoutFormProps{
		Form:         f,
		Action:       base,
		LoginAction:  base + "/masuk",
		GuestAction:  base + "/tamu",
		ChangeAction: base + "/ubah",
		SiteKey:      h.siteKey,
	}
}

func (h *CheckoutHandler) renderForm(c echo.Context, code int, slug string, f *checkout.Form) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return components.CheckoutForm(h.component(slug, f)).Render(c.Request().Context(), c.Response())
}

// Show renders the campaign page with the checkout form
func (h *CheckoutHandler) Show(c echo.Context) error {
	campaign, err := h.loadCampaign(c)
	if err != nil {
		return err
	}
	f, _ := h.form(c, campaign)
	return h.renderPage(c, http.StatusOK, campaign, f)
}

func (h *CheckoutHandler) renderPage(c echo.Context, code int, campaign *models.Campaign, f *checkout.Form) error {
	ctx := c.Request().Context()

	collected, err := h.campaigns.CampaignCollected(ctx, campaign.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	donors, err := h.campaigns.RecentPaidDonations(ctx, campaign.ID, recentDonorsLimit)
	if err != nil {
		log.WithError(err).WithField("campaign_id", campaign.ID).Warn("checkout: failed to load recent donors")
	}

	progress := models.CampaignWithTotal{Campaign: *campaign, Collected: collected}.Progress()

	return c.Render(code, "checkout.html", map[string]interface{}{
		"Campaign":         campaign,
		"Collected":        collected,
		"Progress":         progress,
		"Donors":           donors,
		"ChallengeEnabled": h.challengeEnabled,
		"CheckoutForm":     components.CheckoutForm(h.component(campaign.Slug, f)),
		"Breadcrumbs": breadcrumbs(
			components.Breadcrumb{Title: "Donasi", URL: "/donasi"},
			components.Breadcrumb{Title: campaign.Title},
		),
	})
}

// ChooseLogin sends the visitor to the login page, returning to this checkout afterwards
func (h *CheckoutHandler) ChooseLogin(c echo.Context) error {
	campaign, err := h.loadCampaign(c)
	if err != nil {
		return err
	}
	f, _ := h.form(c, campaign)
	if f.Mode == checkout.ModeLoggedIn {
		return redirect(c, checkoutPath(campaign.Slug))
	}
	if f.Mode == checkout.ModeGuest {
		_ = f.ChangeMode()
	}

	target, err := f.LoginURL(checkoutPath(campaign.Slug))
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict).SetInternal(err)
	}
	return redirect(c, target)
}

// ChooseGuest moves the form to guest mode and returns the re-rendered form
func (h *CheckoutHandler) ChooseGuest(c echo.Context) error {
	campaign, err := h.loadCampaign(c)
	if err != nil {
		return err
	}
	f, sid := h.form(c, campaign)
	if f.Mode == checkout.ModeAuthChoice {
		if err := f.ChooseGuest(); err != nil {
			return echo.NewHTTPError(http.StatusConflict).SetInternal(err)
		}
		if err := h.modes.Set(c.Request().Context(), sid, campaign.ID, checkout.ModeGuest); err != nil {
			log.WithError(err).Warn("checkout: failed to store guest mode")
		}
	}
	if !isHTMX(c) {
		return redirect(c, checkoutPath(campaign.Slug))
	}
	return h.renderForm(c, http.StatusOK, campaign.Slug, f)
}

// ChangeMode moves a guest back to the login-or-guest fork
func (h *CheckoutHandler) ChangeMode(c echo.Context) error {
	campaign, err := h.loadCampaign(c)
	if err != nil {
		return err
	}
	f, sid := h.form(c, campaign)
	if f.Mode == checkout.ModeGuest {
		if err := f.ChangeMode(); err != nil {
			return echo.NewHTTPError(http.StatusConflict).SetInternal(err)
		}
		if err := h.modes.Clear(c.Request().Context(), sid, campaign.ID); err != nil {
			log.WithError(err).Warn("checkout: failed to clear mode")
		}
	}
	if !isHTMX(c) {
		return redirect(c, checkoutPath(campaign.Slug))
	}
	return h.renderForm(c, http.StatusOK, campaign.Slug, f)
}

// requestCreator stamps the client address on every request before handing it on
type requestCreator struct {
	next     checkout.Creator
	clientIP string
}

func (r requestCreator) CreateDonation(ctx context.Context, req checkout.DonationRequest) (*checkout.Result, error) {
	req.ClientIP = r.clientIP
	return r.next.CreateDonation(ctx, req)
}

// Submit validates the posted form and creates the donation. Failures re-render the form with
// the error and a fresh challenge; success navigates to the payment page or the success page.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	campaign, err := h.loadCampaign(c)
	if err != nil {
		return err
	}
	f, sid := h.form(c, campaign)

	f.Apply(checkout.Input{
		PresetAmount:   c.FormValue("preset_amount"),
		CustomAmount:   c.FormValue("custom_amount"),
		Name:           c.FormValue("donor_name"),
		Email:          c.FormValue("donor_email"),
		Phone:          c.FormValue("donor_phone"),
		Message:        c.FormValue("message"),
		Anonymous:      strings.EqualFold(c.FormValue("is_anonymous"), "true"),
		ChallengeToken: c.FormValue("turnstile_token"),
	})
	// the guest name is optional
	if f.Mode == checkout.ModeGuest && f.Name == "" {
		f.Name = models.AnonymousDonorName
	}

	outcome, err := f.Submit(c.Request().Context(), requestCreator{next: h.creator, clientIP: c.RealIP()})
	if err != nil {
		log.WithError(err).WithField("campaign_id", campaign.ID).Info("checkout: submission rejected")
		if !isHTMX(c) {
			return h.renderPage(c, http.StatusUnprocessableEntity, campaign, f)
		}
		return h.renderForm(c, http.StatusUnprocessableEntity, campaign.Slug, f)
	}

	if err := h.modes.Clear(c.Request().Context(), sid, campaign.ID); err != nil {
		log.WithError(err).Warn("checkout: failed to clear mode")
	}
	return redirect(c, outcome.RedirectURL)
}
