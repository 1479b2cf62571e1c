package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/checkout"
	"iark_app/internal/models"
	"iark_app/internal/services"
	"iark_app/internal/session"
	"iark_app/internal/store"
	"iark_app/web/components"
)

const maxNotificationBody = 64 << 10

// DonationAPI is implemented by services.DonationService
type DonationAPI interface {
	CreateDonation(ctx context.Context, req checkout.DonationRequest) (*checkout.Result, error)
	HandleNotification(ctx context.Context, n services.Notification, raw []byte) error
	SyncStatus(ctx context.Context, orderID string) (*models.Donation, error)
}

// DonationHandler serves the donation endpoint, the gateway notification and the success page
type DonationHandler struct {
	donations DonationAPI
}

func NewDonationHandler(donations DonationAPI) *DonationHandler {
	return &DonationHandler{donations: donations}
}

func errorJSON(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]string{"error": message})
}

// Create handles POST /api/donations
func (h *DonationHandler) Create(c echo.Context) error {
	var req checkout.DonationRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Data donasi tidak valid.")
	}
	req.ClientIP = c.RealIP()
	req.ProfileID = nil
	if s := session.From(c); s.LoggedIn() && !req.IsGuest {
		id := s.Identity.ProfileID
		req.ProfileID = &id
	}

	result, err := h.donations.CreateDonation(c.Request().Context(), req)
	if err != nil {
		code := services.StatusCode(err)
		if code >= http.StatusInternalServerError {
			log.WithError(err).Error("donation: create failed")
		}
		return errorJSON(c, code, checkout.Message(err))
	}
	return c.JSON(http.StatusCreated, result)
}

// Notification handles POST /api/payments/midtrans/notification
func (h *DonationHandler) Notification(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxNotificationBody))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "unreadable body")
	}

	var n services.Notification
	if err := json.Unmarshal(raw, &n); err != nil || n.OrderID == "" {
		return errorJSON(c, http.StatusBadRequest, "invalid notification")
	}

	if err := h.donations.HandleNotification(c.Request().Context(), n, raw); err != nil {
		code := services.StatusCode(err)
		log.WithError(err).WithFields(log.Fields{
			"order_id":           n.OrderID,
			"transaction_status": n.TransactionStatus,
		}).Warn("payment notification rejected")
		return errorJSON(c, code, http.StatusText(code))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Success renders the page the donor lands on after paying, keyed by order_id
func (h *DonationHandler) Success(c echo.Context) error {
	orderID := c.QueryParam("order_id")
	if orderID == "" {
		return echo.NewHTTPError(http.StatusNotFound, "Donasi tidak ditemukan.")
	}

	donation, err := h.donations.SyncStatus(c.Request().Context(), orderID)
	if err != nil {
		return notFoundOr(err, "Donasi tidak ditemukan.")
	}

	return c.Render(http.StatusOK, "donation_success.html", map[string]interface{}{
		"Donation": donation,
		"Breadcrumbs": breadcrumbs(
			components.Breadcrumb{Title: "Donasi", URL: "/donasi"},
			components.Breadcrumb{Title: "Status Donasi"},
		),
	})
}

// Status handles GET /api/donations/:order_id/status
func (h *DonationHandler) Status(c echo.Context) error {
	donation, err := h.donations.SyncStatus(c.Request().Context(), c.Param("order_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "Donasi tidak ditemukan.")
		}
		log.WithError(err).Error("donation: status check failed")
		return errorJSON(c, http.StatusInternalServerError, "Gagal memeriksa status donasi.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"order_id": donation.OrderID,
		"status":   donation.Status,
		"amount":   donation.Amount,
	})
}
