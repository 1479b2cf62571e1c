package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is an alumni gathering listed on the public site
type Event struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Location    string     `gorm:"type:varchar(255)" json:"location"`
	ImageURL    string     `gorm:"type:text" json:"image_url"`
	StartsAt    time.Time  `gorm:"index" json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    int        `json:"capacity"` // 0 means unlimited
	IsPublished bool       `gorm:"default:true" json:"is_published"`

	Registrations []EventRegistration `gorm:"foreignKey:EventID" json:"registrations,omitempty"`
}

type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusCanceled   RegistrationStatus = "canceled"
)

// EventRegistration links a profile to an event
type EventRegistration struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	EventID   uint               `gorm:"uniqueIndex:idx_event_registrations_event_profile" json:"event_id"`
	ProfileID uint               `gorm:"uniqueIndex:idx_event_registrations_event_profile" json:"profile_id"`
	Status    RegistrationStatus `gorm:"type:varchar(20);default:'registered'" json:"status"`

	Event   Event   `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Profile Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}
