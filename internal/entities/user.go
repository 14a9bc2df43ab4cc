package entities

import "time"

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleStaff UserRole = "staff"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleStaff
}

type User struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Username           string    `gorm:"uniqueIndex;not null;size:64" json:"username"`
	Email              string    `gorm:"size:254" json:"email,omitempty"`
	PasswordHash       string    `gorm:"not null;size:255" json:"-"`
	Role               UserRole  `gorm:"not null;default:'staff';size:20" json:"role"`
	MustChangePassword bool      `gorm:"not null;default:false" json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
