package services

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"iark_app/internal/config"
	"iark_app/internal/models"
)

// MidtransService wraps the Snap and Core API clients
type MidtransService struct {
	SnapClient snap.Client
	CoreClient coreapi.Client
	serverKey  string
}

// NewMidtransService returns nil when no server key is configured
func NewMidtransService(cfg config.MidtransConfig) *MidtransService {
	if !cfg.Enabled() {
		return nil
	}

	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(cfg.ServerKey, env)

	var c coreapi.Client
	c.New(cfg.ServerKey, env)

	midtrans.ServerKey = cfg.ServerKey
	midtrans.ClientKey = cfg.ClientKey
	midtrans.Environment = env

	return &MidtransService{
		SnapClient: s,
		CoreClient: c,
		serverKey:  cfg.ServerKey,
	}
}

// midtrans-go returns *midtrans.Error; a typed nil must not escape as a non-nil error
func gatewayErr(op string, err *midtrans.Error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("midtrans %s error: %s", op, err.Error())
}

// CreateTransaction creates a Snap transaction and returns the redirect URL and token
func (s *MidtransService) CreateTransaction(ctx context.Context, param *snap.Request) (*snap.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, merr := s.SnapClient.CreateTransaction(param)
	if err := gatewayErr("create transaction", merr); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("midtrans create transaction: empty response")
	}
	return resp, nil
}

// CheckTransaction asks the Core API for the current status of an order
func (s *MidtransService) CheckTransaction(ctx context.Context, orderID string) (*coreapi.TransactionStatusResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, merr := s.CoreClient.CheckTransaction(orderID)
	if err := gatewayErr("check transaction", merr); err != nil {
		return nil, err
	}
	return resp, nil
}

// CancelTransaction cancels an unpaid order at the gateway
func (s *MidtransService) CancelTransaction(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, merr := s.CoreClient.CancelTransaction(orderID)
	return gatewayErr("cancel transaction", merr)
}

// VerifySignature checks SHA512(order_id + status_code + gross_amount + server_key)
func (s *MidtransService) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	return VerifyMidtransSignature(s.serverKey, orderID, statusCode, grossAmount, signatureKey)
}

// MidtransSignature computes the notification signature for the given fields
func MidtransSignature(serverKey, orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifyMidtransSignature(serverKey, orderID, statusCode, grossAmount, signatureKey string) bool {
	if serverKey == "" || signatureKey == "" {
		return false
	}
	expected := MidtransSignature(serverKey, orderID, statusCode, grossAmount)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureKey)) == 1
}

// MapTransactionStatus turns a Midtrans transaction status into a donation status.
// ok is false for statuses that leave the donation unchanged.
func MapTransactionStatus(transactionStatus, fraudStatus string) (status models.DonationStatus, ok bool) {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "", "accept":
			return models.DonationStatusPaid, true
		case "deny":
			return models.DonationStatusFailed, true
		}
		return "", false
	case "settlement":
		return models.DonationStatusPaid, true
	case "deny", "cancel", "failure":
		return models.DonationStatusFailed, true
	case "expire":
		return models.DonationStatusExpired, true
	}
	return "", false
}
