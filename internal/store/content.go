package store

import (
	"context"

	"iark_app/internal/models"
)

const displayOrder = "order_index asc, id asc"

// ListOrdered returns all rows of an ordered content table in display order
func ListOrdered[T any](ctx context.Context, s *Store) ([]T, error) {
	return List[T](ctx, s, displayOrder)
}

// ActiveHeroSlides returns the slides shown on the home page
func (s *Store) ActiveHeroSlides(ctx context.Context) ([]models.HeroSlide, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.HeroSlide
	err = db.Where("is_active = ?", true).Order(displayOrder).Find(&out).Error
	return out, err
}

// PublishedTestimonials returns the testimonials shown on the home page
func (s *Store) PublishedTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Testimonial
	err = db.Where("is_published = ?", true).Order(displayOrder).Find(&out).Error
	return out, err
}

// ListManagement returns the board members in display order
func (s *Store) ListManagement(ctx context.Context) ([]models.ManagementMember, error) {
	return ListOrdered[models.ManagementMember](ctx, s)
}

// ListDormitories returns the dormitories in display order
func (s *Store) ListDormitories(ctx context.Context) ([]models.Dormitory, error) {
	return ListOrdered[models.Dormitory](ctx, s)
}
