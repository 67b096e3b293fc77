package model

import (
	"time"

	"gorm.io/gorm"
)

// Company represents a tenant. Users, employee cards and company services are
// all scoped beneath a company.
type Company struct {
	ID                 string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug               string         `json:"slug" gorm:"type:varchar(120);uniqueIndex;not null"`
	Plan               string         `json:"plan" gorm:"type:varchar(50);default:'free'"`
	SubscriptionStatus string         `json:"subscription_status" gorm:"type:varchar(50);default:'active'"`
	LogoURL            string         `json:"logo_url" gorm:"type:text"`
	BannerURL          string         `json:"banner_url" gorm:"type:text"`
	Description        string         `json:"description" gorm:"type:text"`
	DescriptionI18n    JSONMap        `json:"description_i18n,omitempty" gorm:"type:jsonb"`
	Website            string         `json:"website" gorm:"type:text"`
	Email              string         `json:"email" gorm:"type:varchar(100)"`
	Phone              string         `json:"phone" gorm:"type:varchar(30)"`
	SocialLinks        JSONMap        `json:"social_links,omitempty" gorm:"type:jsonb"`
	BusinessHours      BusinessHours  `json:"business_hours,omitempty" gorm:"type:jsonb"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}
