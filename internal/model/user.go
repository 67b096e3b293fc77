package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. The role decides which dashboard routes are reachable.
const (
	RoleSuperAdmin   = "super_admin"
	RoleCompanyAdmin = "company_admin"
	RoleEmployee     = "employee"
)

// User represents an authenticated principal. The ID doubles as the identity
// subject carried in session tokens. Company-scoped roles must have a non-nil
// CompanyID to reach tenant data; unassigned users have none.
type User struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyID *string        `json:"company_id,omitempty" gorm:"type:uuid;index"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"type:varchar(255);not null"`
	Role      string         `json:"role" gorm:"type:varchar(50);not null;default:'employee'"`
	FirstName string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName  string         `json:"last_name" gorm:"type:varchar(100)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
