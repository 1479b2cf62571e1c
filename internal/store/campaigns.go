package store

import (
	"context"

	"iark_app/internal/models"
)

const collectedSubquery = "COALESCE((SELECT SUM(d.amount) FROM donations d WHERE d.campaign_id = campaigns.id AND d.status = ? AND d.deleted_at IS NULL), 0) AS collected"

// FindActiveCampaignBySlug loads an active campaign for the checkout page
func (s *Store) FindActiveCampaignBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var campaign models.Campaign
	if err := db.Where("slug = ? AND is_active = ?", slug, true).First(&campaign).Error; err != nil {
		return nil, wrap(err)
	}
	return &campaign, nil
}

// CampaignExists reports whether an active campaign with the id exists
func (s *Store) CampaignExists(ctx context.Context, id uint) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	if err := db.Model(&models.Campaign{}).Where("id = ? AND is_active = ?", id, true).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListCampaignsWithTotals returns campaigns with the sum of their paid donations.
// activeOnly restricts the list to campaigns shown on the public site.
func (s *Store) ListCampaignsWithTotals(ctx context.Context, activeOnly bool) ([]models.CampaignWithTotal, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := db.Model(&models.Campaign{}).
		Select("campaigns.*, "+collectedSubquery, models.DonationStatusPaid).
		Order("campaigns.created_at desc")
	if activeOnly {
		query = query.Where("campaigns.is_active = ?", true)
	}

	var out []models.CampaignWithTotal
	if err := query.Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CampaignCollected sums the paid donations of one campaign
func (s *Store) CampaignCollected(ctx context.Context, campaignID uint) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	err = db.Model(&models.Donation{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("campaign_id = ? AND status = ?", campaignID, models.DonationStatusPaid).
		Scan(&total).Error
	return total, err
}

// SlugTaken reports whether another campaign already uses slug
func (s *Store) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	err = db.Model(&models.Campaign{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count).Error
	return count > 0, err
}
