// Package store is the only place that queries the database. Handlers, services and
// tasks call the typed functions here instead of holding a *gorm.DB.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("database not configured")
)

// Store wraps the gorm connection
type Store struct {
	db *gorm.DB
}

// New returns a Store. A nil db yields a Store whose calls fail with ErrUnavailable.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrUnavailable
	}
	return s.db.WithContext(ctx), nil
}

func wrap(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// List returns all rows of T ordered by the given clause
func List[T any](ctx context.Context, s *Store, order string) ([]T, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := db.Order(order).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Get loads a single row of T by primary key
func Get[T any](ctx context.Context, s *Store, id uint) (*T, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var item T
	if err := db.First(&item, id).Error; err != nil {
		return nil, wrap(err)
	}
	return &item, nil
}

// Create inserts a new row
func Create[T any](ctx context.Context, s *Store, item *T) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(item).Error
}

// Save updates every column of an existing row
func Save[T any](ctx context.Context, s *Store, item *T) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Save(item).Error
}

// Delete soft-deletes a row by primary key
func Delete[T any](ctx context.Context, s *Store, id uint) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
