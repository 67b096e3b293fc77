package model

import (
	"time"

	"gorm.io/gorm"
)

// CompanyService is a tenant-scoped marketing tile rendered in a carousel on
// public cards. Ordering is controlled by DisplayOrder.
type CompanyService struct {
	ID              string         `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyID       string         `json:"company_id" gorm:"type:uuid;index;not null"`
	Title           string         `json:"title" gorm:"type:varchar(150);not null"`
	Description     string         `json:"description" gorm:"type:text"`
	TitleI18n       JSONMap        `json:"title_i18n,omitempty" gorm:"type:jsonb"`
	DescriptionI18n JSONMap        `json:"description_i18n,omitempty" gorm:"type:jsonb"`
	Icon            string         `json:"icon" gorm:"type:varchar(100)"`
	DisplayOrder    int            `json:"display_order" gorm:"default:0"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
