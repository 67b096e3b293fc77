package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CardTheme is the denormalized display bag stored on every card. It carries
// the public display name, the title with its per-locale translations, and the
// legacy tenant linkage: rows created before the company_id column migration
// only know their company through Theme.CompanyID.
type CardTheme struct {
	Name      string            `json:"name"`
	Title     string            `json:"title,omitempty"`
	TitleI18n map[string]string `json:"title_i18n,omitempty"`
	CompanyID string            `json:"company_id,omitempty"`
}

// Value implements driver.Valuer
func (t CardTheme) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner
func (t *CardTheme) Scan(value interface{}) error {
	if value == nil {
		*t = CardTheme{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// EmployeeCard is the public-facing digital business card. PublicSlug is
// globally unique; IsActive=false removes the card from public resolution
// without deleting the row. Deletion is a hard delete, so there is no
// gorm.DeletedAt here.
type EmployeeCard struct {
	ID            string        `json:"id" gorm:"type:uuid;primaryKey"`
	EmployeeID    string        `json:"employee_id" gorm:"type:uuid;index;not null"`
	CompanyID     *string       `json:"company_id,omitempty" gorm:"type:uuid;index"`
	PublicSlug    string        `json:"public_slug" gorm:"type:varchar(140);uniqueIndex;not null"`
	PhotoURL      string        `json:"photo_url" gorm:"type:text;not null"`
	Phone         string        `json:"phone" gorm:"type:varchar(30);not null"`
	Phone2        string        `json:"phone2,omitempty" gorm:"type:varchar(30)"`
	Whatsapp      string        `json:"whatsapp,omitempty" gorm:"type:varchar(30)"`
	Whatsapp2     string        `json:"whatsapp2,omitempty" gorm:"type:varchar(30)"`
	Email         string        `json:"email" gorm:"type:varchar(100);not null"`
	Website       string        `json:"website,omitempty" gorm:"type:text"`
	SocialLinks   JSONMap       `json:"social_links,omitempty" gorm:"type:jsonb"`
	BusinessHours BusinessHours `json:"business_hours,omitempty" gorm:"type:jsonb"`
	Theme         CardTheme     `json:"theme" gorm:"type:jsonb"`
	IsActive      bool          `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ResolveCompanyID returns the owning company of the card, preferring the
// first-class column and falling back to the theme-embedded id for rows that
// predate the migration. The empty string means the card is unscoped.
func (c *EmployeeCard) ResolveCompanyID() string {
	if c.CompanyID != nil && *c.CompanyID != "" {
		return *c.CompanyID
	}
	return c.Theme.CompanyID
}
