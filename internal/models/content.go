package models

import (
	"time"

	"gorm.io/gorm"
)

// HeroSlide is a banner on the home page
type HeroSlide struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title      string `gorm:"type:varchar(255)" json:"title"`
	Subtitle   string `gorm:"type:text" json:"subtitle"`
	ImageURL   string `gorm:"type:text" json:"image_url"`
	LinkURL    string `gorm:"type:text" json:"link_url"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
	OrderIndex int    `gorm:"index" json:"order_index"`
}

// ManagementMember is a member of the association board
type ManagementMember struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name       string `gorm:"type:varchar(255)" json:"name"`
	Position   string `gorm:"type:varchar(255)" json:"position"`
	Period     string `gorm:"type:varchar(50)" json:"period"`
	PhotoURL   string `gorm:"type:text" json:"photo_url"`
	OrderIndex int    `gorm:"index" json:"order_index"`
}

func (ManagementMember) TableName() string {
	return "management"
}

// Testimonial is an alumni quote shown on the home page
type Testimonial struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string `gorm:"type:varchar(255)" json:"name"`
	Batch       string `gorm:"type:varchar(50)" json:"batch"` // angkatan
	Quote       string `gorm:"type:text" json:"quote"`
	PhotoURL    string `gorm:"type:text" json:"photo_url"`
	IsPublished bool   `gorm:"default:true" json:"is_published"`
	OrderIndex  int    `gorm:"index" json:"order_index"`
}

// Dormitory is an asrama managed by the association
type Dormitory struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string `gorm:"type:varchar(255)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Address     string `gorm:"type:text" json:"address"`
	ImageURL    string `gorm:"type:text" json:"image_url"`
	OrderIndex  int    `gorm:"index" json:"order_index"`
}

// Cluster groups alumni, e.g. by region or batch
type Cluster struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string `gorm:"type:varchar(255)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	OrderIndex  int    `gorm:"index" json:"order_index"`
}
