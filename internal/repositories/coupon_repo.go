package repositories

import (
	"errors"

	"stylehub/internal/models"
)

// ErrCouponNotFound is returned when no coupon exists for a given ID.
var ErrCouponNotFound = errors.New("coupon not found")

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	GetAll() ([]models.Coupon, error)
	GetByID(id string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Delete(id string) error
}
