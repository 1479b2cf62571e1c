package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"iark_app/internal/models"
)

var ErrEventFull = errors.New("event is full")

// ListUpcomingEvents returns published events starting after now. limit <= 0 means no limit.
func (s *Store) ListUpcomingEvents(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := db.Where("is_published = ? AND starts_at >= ?", true, now).Order("starts_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []models.Event
	err = query.Find(&out).Error
	return out, err
}

// ListPublishedEvents returns every published event, newest first
func (s *Store) ListPublishedEvents(ctx context.Context) ([]models.Event, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Event
	err = db.Where("is_published = ?", true).Order("starts_at desc").Find(&out).Error
	return out, err
}

// FindPublishedEvent loads a published event
func (s *Store) FindPublishedEvent(ctx context.Context, id uint) (*models.Event, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var e models.Event
	if err := db.Where("is_published = ?", true).First(&e, id).Error; err != nil {
		return nil, wrap(err)
	}
	return &e, nil
}

// CountRegistrations counts active registrations of an event
func (s *Store) CountRegistrations(ctx context.Context, eventID uint) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Model(&models.EventRegistration{}).
		Where("event_id = ? AND status = ?", eventID, models.RegistrationStatusRegistered).
		Count(&n).Error
	return n, err
}

// RegisterForEvent registers a profile once; a second call returns the existing registration.
func (s *Store) RegisterForEvent(ctx context.Context, event *models.Event, profileID uint) (*models.EventRegistration, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var reg models.EventRegistration
	err = db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("event_id = ? AND profile_id = ?", event.ID, profileID).First(&reg).Error
		if err == nil {
			if reg.Status == models.RegistrationStatusRegistered {
				return nil
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if event.Capacity > 0 {
			var n int64
			if err := tx.Model(&models.EventRegistration{}).
				Where("event_id = ? AND status = ?", event.ID, models.RegistrationStatusRegistered).
				Count(&n).Error; err != nil {
				return err
			}
			if n >= int64(event.Capacity) {
				return ErrEventFull
			}
		}

		reg.EventID = event.ID
		reg.ProfileID = profileID
		reg.Status = models.RegistrationStatusRegistered
		return tx.Save(&reg).Error
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindRegistration returns a profile's registration for an event
func (s *Store) FindRegistration(ctx context.Context, eventID, profileID uint) (*models.EventRegistration, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var reg models.EventRegistration
	if err := db.Where("event_id = ? AND profile_id = ?", eventID, profileID).First(&reg).Error; err != nil {
		return nil, wrap(err)
	}
	return &reg, nil
}

// ListRegistrationsByProfile returns a profile's registrations with their events
func (s *Store) ListRegistrationsByProfile(ctx context.Context, profileID uint) ([]models.EventRegistration, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.EventRegistration
	err = db.Preload("Event").Where("profile_id = ?", profileID).Order("created_at desc").Find(&out).Error
	return out, err
}

// ListRegistrationsByEvent returns the registrations of one event with their profiles
func (s *Store) ListRegistrationsByEvent(ctx context.Context, eventID uint) ([]models.EventRegistration, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.EventRegistration
	err = db.Preload("Profile").Where("event_id = ?", eventID).Order("created_at asc").Find(&out).Error
	return out, err
}
