package model

import "time"

// NfcTag maps a physical tag UID to an employee card. Scanning a tag hits
// /t/:uid which redirects to the card's public URL.
type NfcTag struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	UID            string    `json:"uid" gorm:"type:varchar(64);uniqueIndex;not null"`
	CompanyID      string    `json:"company_id" gorm:"type:uuid;index"`
	EmployeeCardID string    `json:"employee_card_id" gorm:"type:uuid;index;not null"`
	Active         bool      `json:"active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
