package model

import "time"

// AnalyticsEvent records a single interaction with a public card. Events are
// written fire-and-forget; failures are logged and never surfaced to visitors.
type AnalyticsEvent struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyID string    `json:"company_id" gorm:"type:uuid;index"`
	CardID    string    `json:"card_id" gorm:"type:uuid;index"`
	EventType string    `json:"event_type" gorm:"type:varchar(50);not null"` // "card_view", "vcard_download"
	Locale    string    `json:"locale" gorm:"type:varchar(5)"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
