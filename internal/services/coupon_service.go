package services

import (
	"fmt"

	"stylehub/internal/models"
	"stylehub/internal/repositories"
)

// CouponService handles business logic related to coupons.
type CouponService struct {
	repo repositories.CouponRepository
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo repositories.CouponRepository) *CouponService {
	return &CouponService{
		repo: repo,
	}
}

// GetAllCoupons retrieves all coupons.
func (s *CouponService) GetAllCoupons() ([]models.Coupon, error) {
	return s.repo.GetAll()
}

// CreateCoupon creates a new coupon with a fresh usage count.
func (s *CouponService) CreateCoupon(coupon *models.Coupon) error {
	if !coupon.EndDate.After(coupon.StartDate) {
		return fmt.Errorf("coupon end date must be after start date")
	}
	coupon.UsageCount = 0
	return s.repo.Create(coupon)
}

// DeleteCoupon deletes a coupon by its ID.
func (s *CouponService) DeleteCoupon(id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}
