package store

import (
	"context"
	"time"

	"iark_app/internal/models"
)

// DonationFilter narrows the admin donation listing
type DonationFilter struct {
	Status     models.DonationStatus
	CampaignID uint
}

// CreateDonation inserts a pending donation
func (s *Store) CreateDonation(ctx context.Context, d *models.Donation) error {
	return Create(ctx, s, d)
}

// FindDonationByOrderID loads a donation and its campaign
func (s *Store) FindDonationByOrderID(ctx context.Context, orderID string) (*models.Donation, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var d models.Donation
	if err := db.Preload("Campaign").Where("order_id = ?", orderID).First(&d).Error; err != nil {
		return nil, wrap(err)
	}
	return &d, nil
}

// SetPaymentSession stores the gateway token and redirect URL of a donation
func (s *Store) SetPaymentSession(ctx context.Context, orderID, token, redirectURL string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Model(&models.Donation{}).Where("order_id = ?", orderID).Updates(map[string]interface{}{
		"payment_token":   token,
		"payment_url":     redirectURL,
		"payment_gateway": models.PaymentGatewayMidtrans,
	}).Error
}

// MarkDonationPaid settles a donation once. changed is false when it was already paid.
func (s *Store) MarkDonationPaid(ctx context.Context, orderID string, gateway models.PaymentGateway, method string, paidAt time.Time) (changed bool, err error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	res := db.Model(&models.Donation{}).
		Where("order_id = ? AND status <> ?", orderID, models.DonationStatusPaid).
		Updates(map[string]interface{}{
			"status":          models.DonationStatusPaid,
			"payment_gateway": gateway,
			"payment_method":  method,
			"paid_at":         paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CloseDonation moves a pending donation to failed or expired. Paid donations are left untouched.
func (s *Store) CloseDonation(ctx context.Context, orderID string, status models.DonationStatus) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	res := db.Model(&models.Donation{}).
		Where("order_id = ? AND status = ?", orderID, models.DonationStatusPending).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListDonations returns donations newest first
func (s *Store) ListDonations(ctx context.Context, filter DonationFilter) ([]models.Donation, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := db.Preload("Campaign").Order("created_at desc")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CampaignID > 0 {
		query = query.Where("campaign_id = ?", filter.CampaignID)
	}
	var out []models.Donation
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListDonationsByProfile returns the donations made by one alumni
func (s *Store) ListDonationsByProfile(ctx context.Context, profileID uint) ([]models.Donation, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Donation
	err = db.Preload("Campaign").Where("profile_id = ?", profileID).Order("created_at desc").Find(&out).Error
	return out, err
}

// RecentPaidDonations lists the latest settled donations of a campaign
func (s *Store) RecentPaidDonations(ctx context.Context, campaignID uint, limit int) ([]models.Donation, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Donation
	err = db.Where("campaign_id = ? AND status = ?", campaignID, models.DonationStatusPaid).
		Order("paid_at desc").Limit(limit).Find(&out).Error
	return out, err
}

// ListStalePendingDonations returns pending donations created before cutoff
func (s *Store) ListStalePendingDonations(ctx context.Context, cutoff time.Time) ([]models.Donation, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Donation
	err = db.Where("status = ? AND created_at < ?", models.DonationStatusPending, cutoff).Find(&out).Error
	return out, err
}

// RecordPaymentCallback stores a raw gateway notification
func (s *Store) RecordPaymentCallback(ctx context.Context, h *models.PaymentCallbackHistory) error {
	return Create(ctx, s, h)
}
