package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/checkout"
	"iark_app/internal/models"
	"iark_app/internal/store"
)

var (
	ErrRateLimited      = errors.New("too many donation attempts")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrPaymentGateway   = errors.New("payment gateway unavailable")
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrAmountMismatch   = errors.New("notification amount does not match donation")
)

// publicError carries an HTTP status and a donor-facing message alongside the cause
type publicError struct {
	err     error
	status  int
	message string
}

func (e *publicError) Error() string         { return e.err.Error() }
func (e *publicError) Unwrap() error         { return e.err }
func (e *publicError) PublicMessage() string { return e.message }
func (e *publicError) StatusCode() int       { return e.status }

func newPublicError(err error, status int, message string) error {
	return &publicError{err: err, status: status, message: message}
}

// StatusCode returns the HTTP status for a donation error, 500 when unknown
func StatusCode(err error) int {
	var pe interface{ StatusCode() int }
	if errors.As(err, &pe) {
		return pe.StatusCode()
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// DonationStore is the part of the store the donation flow needs
type DonationStore interface {
	CampaignExists(ctx context.Context, id uint) (bool, error)
	CreateDonation(ctx context.Context, d *models.Donation) error
	SetPaymentSession(ctx context.Context, orderID, token, redirectURL string) error
	FindDonationByOrderID(ctx context.Context, orderID string) (*models.Donation, error)
	MarkDonationPaid(ctx context.Context, orderID string, gateway models.PaymentGateway, method string, paidAt time.Time) (bool, error)
	CloseDonation(ctx context.Context, orderID string, status models.DonationStatus) (bool, error)
	RecordPaymentCallback(ctx context.Context, h *models.PaymentCallbackHistory) error
}

// PaymentGateway is implemented by MidtransService
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, param *snap.Request) (*snap.Response, error)
	CheckTransaction(ctx context.Context, orderID string) (*coreapi.TransactionStatusResponse, error)
	CancelTransaction(ctx context.Context, orderID string) error
	VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool
}

type ChallengeVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token, remoteIP string) error
}

type Limiter interface {
	Allow(ctx context.Context, scope, subject string) (bool, int, error)
}

// ReceiptScheduler queues the receipt notification for a paid donation
type ReceiptScheduler interface {
	ScheduleReceipt(ctx context.Context, orderID string) error
}

// DonationService creates donations and settles them from gateway notifications.
// Gateway, Verifier, Limiter and Receipts are optional.
type DonationService struct {
	Store    DonationStore
	Gateway  PaymentGateway
	Verifier ChallengeVerifier
	Limiter  Limiter
	Receipts ReceiptScheduler

	AppURL     string
	PendingTTL time.Duration
	Now        func() time.Time
}

func (s *DonationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NewOrderID returns IARK-<yyyymmdd>-<first 8 hex chars of a uuid>
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("IARK-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
}

// CreateDonation validates req, stores a pending donation and opens a Snap session for it
func (s *DonationService) CreateDonation(ctx context.Context, req checkout.DonationRequest) (*checkout.Result, error) {
	req = req.Normalized()

	if err := checkout.ValidateRequest(req); err != nil {
		return nil, newPublicError(err, http.StatusBadRequest, checkout.Message(err))
	}

	if s.Limiter != nil {
		allowed, retryAfter, err := s.Limiter.Allow(ctx, "donations", req.ClientIP)
		if err != nil {
			log.WithError(err).Warn("donation rate limiter unavailable")
		} else if !allowed {
			return nil, newPublicError(ErrRateLimited, http.StatusTooManyRequests,
				fmt.Sprintf("Terlalu banyak percobaan donasi. Coba lagi dalam %d detik.", retryAfter))
		}
	}

	if err := s.verifyChallenge(ctx, req); err != nil {
		return nil, newPublicError(err, http.StatusBadRequest, "Verifikasi keamanan gagal. Silakan coba lagi.")
	}

	var campaignID *uint
	if req.CampaignID != 0 {
		exists, err := s.Store.CampaignExists(ctx, req.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("check campaign: %w", err)
		}
		if !exists {
			return nil, newPublicError(ErrCampaignNotFound, http.StatusNotFound, "Kampanye donasi tidak ditemukan.")
		}
		id := req.CampaignID
		campaignID = &id
	}

	donation := &models.Donation{
		OrderID:     NewOrderID(s.now()),
		CampaignID:  campaignID,
		ProfileID:   req.ProfileID,
		Amount:      req.Amount,
		DonorName:   req.DonorName,
		DonorEmail:  req.DonorEmail,
		DonorPhone:  req.DonorPhone,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
		IsGuest:     req.IsGuest,
		Status:      models.DonationStatusPending,
	}
	if err := s.Store.CreateDonation(ctx, donation); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	logger := log.WithFields(log.Fields{"order_id": donation.OrderID, "amount": donation.Amount})

	if s.Gateway == nil {
		logger.Info("Payment gateway not configured, donation recorded without payment session")
		return &checkout.Result{OrderID: donation.OrderID}, nil
	}

	resp, err := s.Gateway.CreateTransaction(ctx, s.snapRequest(donation))
	if err != nil {
		logger.WithError(err).Error("Failed to create payment session")
		if _, cerr := s.Store.CloseDonation(ctx, donation.OrderID, models.DonationStatusFailed); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close donation after gateway error")
		}
		return nil, newPublicError(fmt.Errorf("%w: %v", ErrPaymentGateway, err), http.StatusBadGateway,
			"Gagal membuat sesi pembayaran. Silakan coba lagi.")
	}

	if err := s.Store.SetPaymentSession(ctx, donation.OrderID, resp.Token, resp.RedirectURL); err != nil {
		logger.WithError(err).Warn("Failed to persist payment session")
	}

	logger.Info("Donation created")
	return &checkout.Result{PaymentURL: resp.RedirectURL, OrderID: donation.OrderID}, nil
}

func (s *DonationService) verifyChallenge(ctx context.Context, req checkout.DonationRequest) error {
	if s.Verifier == nil {
		if req.TurnstileToken == checkout.BypassToken {
			return nil
		}
		return ErrChallengeFailed
	}
	return s.Verifier.Verify(ctx, req.TurnstileToken, req.ClientIP)
}

func (s *DonationService) snapRequest(d *models.Donation) *snap.Request {
	itemID := "donasi-umum"
	itemName := "Donasi Umum IARK"
	if d.CampaignID != nil {
		itemID = fmt.Sprintf("campaign-%d", *d.CampaignID)
		itemName = "Donasi IARK"
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  d.OrderID,
			GrossAmt: d.Amount,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    itemID,
			Name:  itemName,
			Price: d.Amount,
			Qty:   1,
		}},
	}

	if !d.IsGuest || d.DonorEmail != "" {
		req.CustomerDetail = &midtrans.CustomerDetails{
			FName: d.DonorName,
			Email: d.DonorEmail,
			Phone: d.DonorPhone,
		}
	}

	if s.AppURL != "" {
		req.Callbacks = &snap.Callbacks{
			Finish: s.AppURL + checkout.SuccessPath + "?order_id=" + url.QueryEscape(d.OrderID),
		}
	}

	if s.PendingTTL > 0 {
		req.Expiry = &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: int64(s.PendingTTL / time.Minute),
		}
	}
	return req
}

// Notification is the HTTP notification body sent by Midtrans
type Notification struct {
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	OrderID           string `json:"order_id"`
	PaymentType       string `json:"payment_type"`
	SignatureKey      string `json:"signature_key"`
}

// HandleNotification records a gateway notification and applies it to the donation.
// Repeated notifications for a paid donation are no-ops.
func (s *DonationService) HandleNotification(ctx context.Context, n Notification, raw []byte) error {
	valid := s.Gateway != nil && s.Gateway.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, n.SignatureKey)

	history := &models.PaymentCallbackHistory{
		PaymentGateway:    models.PaymentGatewayMidtrans,
		OrderID:           n.OrderID,
		TransactionStatus: n.TransactionStatus,
		SignatureValid:    valid,
		Metadata:          json.RawMessage(raw),
	}
	if len(raw) == 0 || !json.Valid(raw) {
		history.Metadata, _ = json.Marshal(n)
	}
	if err := s.Store.RecordPaymentCallback(ctx, history); err != nil {
		log.WithError(err).WithField("order_id", n.OrderID).Warn("Failed to record payment callback")
	}

	if !valid {
		return newPublicError(ErrInvalidSignature, http.StatusForbidden, "invalid signature")
	}

	donation, err := s.Store.FindDonationByOrderID(ctx, n.OrderID)
	if err != nil {
		return err
	}

	if !amountMatches(n.GrossAmount, donation.Amount) {
		log.WithFields(log.Fields{
			"order_id":     n.OrderID,
			"gross_amount": n.GrossAmount,
			"amount":       donation.Amount,
		}).Error("Notification amount mismatch")
		return newPublicError(ErrAmountMismatch, http.StatusBadRequest, "amount mismatch")
	}

	_, err = s.applyStatus(ctx, donation, n.TransactionStatus, n.FraudStatus, n.PaymentType)
	return err
}

// SyncStatus asks the gateway for the latest status of a pending donation and applies it
func (s *DonationService) SyncStatus(ctx context.Context, orderID string) (*models.Donation, error) {
	donation, err := s.Store.FindDonationByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if donation.Status != models.DonationStatusPending || s.Gateway == nil || donation.PaymentToken == "" {
		return donation, nil
	}

	resp, err := s.Gateway.CheckTransaction(ctx, orderID)
	if err != nil {
		log.WithError(err).WithField("order_id", orderID).Warn("Failed to check transaction status")
		return donation, nil
	}

	status, err := s.applyStatus(ctx, donation, resp.TransactionStatus, resp.FraudStatus, resp.PaymentType)
	if err != nil {
		return nil, err
	}
	donation.Status = status
	return donation, nil
}

// ExpireDonation closes a stale pending donation, settling it instead when the gateway says it was paid
func (s *DonationService) ExpireDonation(ctx context.Context, d *models.Donation) (models.DonationStatus, error) {
	if s.Gateway != nil && d.PaymentToken != "" {
		resp, err := s.Gateway.CheckTransaction(ctx, d.OrderID)
		if err == nil {
			status, err := s.applyStatus(ctx, d, resp.TransactionStatus, resp.FraudStatus, resp.PaymentType)
			if err != nil || status != models.DonationStatusPending {
				return status, err
			}
			if err := s.Gateway.CancelTransaction(ctx, d.OrderID); err != nil {
				log.WithError(err).WithField("order_id", d.OrderID).Warn("Failed to cancel transaction")
			}
		}
	}

	if _, err := s.Store.CloseDonation(ctx, d.OrderID, models.DonationStatusExpired); err != nil {
		return d.Status, err
	}
	return models.DonationStatusExpired, nil
}

// MarkPaidManually settles a donation confirmed outside the gateway, e.g. a bank transfer
func (s *DonationService) MarkPaidManually(ctx context.Context, orderID string) error {
	changed, err := s.Store.MarkDonationPaid(ctx, orderID, models.PaymentGatewayManual, "manual", s.now())
	if err != nil {
		return err
	}
	if changed {
		s.scheduleReceipt(ctx, orderID)
	}
	return nil
}

func (s *DonationService) applyStatus(ctx context.Context, d *models.Donation, transactionStatus, fraudStatus, paymentType string) (models.DonationStatus, error) {
	status, ok := MapTransactionStatus(transactionStatus, fraudStatus)
	if !ok {
		return d.Status, nil
	}

	logger := log.WithFields(log.Fields{"order_id": d.OrderID, "transaction_status": transactionStatus})

	switch status {
	case models.DonationStatusPaid:
		changed, err := s.Store.MarkDonationPaid(ctx, d.OrderID, models.PaymentGatewayMidtrans, paymentType, s.now())
		if err != nil {
			return d.Status, err
		}
		if changed {
			logger.Info("Donation paid")
			s.scheduleReceipt(ctx, d.OrderID)
		}
	default:
		changed, err := s.Store.CloseDonation(ctx, d.OrderID, status)
		if err != nil {
			return d.Status, err
		}
		if !changed {
			return d.Status, nil
		}
		logger.Infof("Donation %s", status)
	}
	return status, nil
}

func (s *DonationService) scheduleReceipt(ctx context.Context, orderID string) {
	if s.Receipts == nil {
		return
	}
	if err := s.Receipts.ScheduleReceipt(ctx, orderID); err != nil {
		log.WithError(err).WithField("order_id", orderID).Error("Failed to schedule donation receipt")
	}
}

func amountMatches(gross string, amount int64) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(gross), 64)
	if err != nil {
		return false
	}
	return int64(f) == amount
}
