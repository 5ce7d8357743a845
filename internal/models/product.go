package models

import "gorm.io/gorm"

// Product represents a product in the catalog. Sizes, colors and images are
// ordered lists; images always holds at least one entry after creation.
type Product struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string     `json:"name" gorm:"type:varchar(100)" validate:"required,min=1,max=100"`
	Brand       string     `json:"brand" gorm:"type:varchar(100)"`
	Category    string     `json:"category" gorm:"type:varchar(100)"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	Gender      string     `json:"gender" gorm:"type:varchar(20)"`
	Sizes       StringList `json:"sizes" gorm:"type:text"`
	Colors      StringList `json:"colors" gorm:"type:text"`
	Price       float64    `json:"price" validate:"gte=0"`
	Stock       int        `json:"stock" validate:"gte=0"`
	SoldCount   int        `json:"soldCount" validate:"gte=0"`
	Rating      float64    `json:"rating" validate:"gte=0"`
	Images      StringList `json:"images" gorm:"type:text" validate:"required,min=1"`
	gorm.Model             // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
