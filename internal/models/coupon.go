package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon represents a discount coupon. Coupons are managed by super admins only.
type Coupon struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Code            string    `json:"code" gorm:"uniqueIndex;type:varchar(50)" validate:"required,min=3,max=50"`
	DiscountPercent float64   `json:"discountPercent" validate:"required,gt=0,lte=100"`
	StartDate       time.Time `json:"startDate" validate:"required"`
	EndDate         time.Time `json:"endDate" validate:"required"`
	UsageLimit      int       `json:"usageLimit" validate:"gte=0"`
	UsageCount      int       `json:"usageCount"`
	gorm.Model                // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
