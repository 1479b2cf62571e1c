package store

import (
	"context"
	"errors"

	"iark_app/internal/models"
)

// FindProfileByUID loads the profile linked to a Firebase uid
func (s *Store) FindProfileByUID(ctx context.Context, uid string) (*models.Profile, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var p models.Profile
	if err := db.Where("firebase_uid = ?", uid).First(&p).Error; err != nil {
		return nil, wrap(err)
	}
	return &p, nil
}

// UpsertProfile returns the profile for a Firebase identity, creating it on first login.
// A profile pre-created by an admin with the same email is linked to the uid.
func (s *Store) UpsertProfile(ctx context.Context, uid, email, name string) (*models.Profile, error) {
	p, err := s.FindProfileByUID(ctx, uid)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var existing models.Profile
	if email != "" {
		if err := db.Where("email = ? AND (firebase_uid = '' OR firebase_uid IS NULL)", email).First(&existing).Error; err == nil {
			existing.FirebaseUID = uid
			if existing.FullName == "" {
				existing.FullName = name
			}
			if err := db.Save(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
	}

	created := models.Profile{
		FirebaseUID: uid,
		Email:       email,
		FullName:    name,
		Role:        models.RoleAlumni,
	}
	if err := db.Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProfileContact changes the self-editable fields of a profile
func (s *Store) UpdateProfileContact(ctx context.Context, id uint, fullName, phone string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Model(&models.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"full_name": fullName,
		"phone":     phone,
	}).Error
}

// ListProfiles returns all profiles with their cluster
func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Profile
	err = db.Preload("Cluster").Order("full_name asc").Find(&out).Error
	return out, err
}

// SetProfileRole changes the access level of a profile
func (s *Store) SetProfileRole(ctx context.Context, id uint, role models.Role) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Profile{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
