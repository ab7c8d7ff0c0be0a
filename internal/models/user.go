package models

import "time"

// User is an admin/staff account for the back-office list views.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"unique;not null;index"`
	Password  string `gorm:"not null"` // bcrypt hash
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
