package models

import (
	"time"

	"gorm.io/gorm"
)

// Role represents the access level of a profile
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAlumni Role = "alumni"
)

// Profile is an alumni account backed by a Firebase identity
type Profile struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FirebaseUID    string `gorm:"type:varchar(128);uniqueIndex:idx_profiles_firebase_uid,where:firebase_uid <> ''" json:"firebase_uid"`
	Email          string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FullName       string `gorm:"type:varchar(255)" json:"full_name"`
	Phone          string `gorm:"type:varchar(50)" json:"phone"`
	Role           Role   `gorm:"type:varchar(20);default:'alumni'" json:"role"`
	GraduationYear int    `json:"graduation_year"`
	ClusterID      *uint  `gorm:"index" json:"cluster_id"`

	Cluster *Cluster `gorm:"foreignKey:ClusterID" json:"cluster,omitempty"`
}

// IsAdmin reports whether the profile may use the back-office
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
