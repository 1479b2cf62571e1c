package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign is a donation drive reachable at /donasi/{slug}
type Campaign struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Slug         string     `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	Description  string     `gorm:"type:text" json:"description"`
	ImageURL     string     `gorm:"type:text" json:"image_url"`
	TargetAmount int64      `json:"target_amount"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	EndDate      *time.Time `json:"end_date"`
}

// CampaignWithTotal pairs a campaign with the sum of its paid donations
type CampaignWithTotal struct {
	Campaign
	Collected int64 `json:"collected"`
}

// Progress returns collected/target as a percentage capped at 100
func (c CampaignWithTotal) Progress() int {
	if c.TargetAmount <= 0 {
		return 0
	}
	pct := int(c.Collected * 100 / c.TargetAmount)
	if pct > 100 {
		return 100
	}
	return pct
}
