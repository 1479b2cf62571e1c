package models

import (
	"time"

	"gorm.io/gorm"
)

// AnonymousDonorName is shown (and stored for guests) in place of a donor name
const AnonymousDonorName = "Hamba Allah"

type DonationStatus string

const (
	DonationStatusPending DonationStatus = "pending"
	DonationStatusPaid    DonationStatus = "paid"
	DonationStatusFailed  DonationStatus = "failed"
	DonationStatusExpired DonationStatus = "expired"
)

// Donation is a persisted donation. It starts pending and is settled by the payment gateway.
type Donation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OrderID    string `gorm:"type:varchar(100);uniqueIndex" json:"order_id"`
	CampaignID *uint  `gorm:"index" json:"campaign_id"`
	ProfileID  *uint  `gorm:"index" json:"profile_id"`

	Amount      int64  `gorm:"not null" json:"amount"`
	DonorName   string `gorm:"type:varchar(255)" json:"donor_name"`
	DonorEmail  string `gorm:"type:varchar(255)" json:"donor_email"`
	DonorPhone  string `gorm:"type:varchar(50)" json:"donor_phone"`
	Message     string `gorm:"type:text" json:"message"`
	IsAnonymous bool   `gorm:"default:false" json:"is_anonymous"`
	IsGuest     bool   `gorm:"default:false" json:"is_guest"`

	Status         DonationStatus `gorm:"type:varchar(20);index;default:'pending'" json:"status"`
	PaymentGateway PaymentGateway `gorm:"type:varchar(50)" json:"payment_gateway"`
	PaymentToken   string         `gorm:"type:text" json:"payment_token"`
	PaymentURL     string         `gorm:"type:text" json:"payment_url"`
	PaymentMethod  string         `gorm:"type:varchar(100)" json:"payment_method"`
	PaidAt         *time.Time     `json:"paid_at"`

	Campaign *Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	Profile  *Profile  `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}

// PublicName is the name shown on public pages
func (d Donation) PublicName() string {
	if d.IsAnonymous || d.DonorName == "" {
		return AnonymousDonorName
	}
	return d.DonorName
}

// CampaignTitle returns the campaign title or a general-donation label
func (d Donation) CampaignTitle() string {
	if d.Campaign != nil {
		return d.Campaign.Title
	}
	return "Donasi Umum"
}
