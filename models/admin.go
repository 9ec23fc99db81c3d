package models

import "time"

type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginAttempt keeps failed admin logins so lockouts survive restarts.
type LoginAttempt struct {
	Username    string     `gorm:"type:varchar(50);primaryKey"`
	Failures    int        `gorm:"not null;default:0"`
	LockedUntil *time.Time `gorm:"index"`
	UpdatedAt   time.Time
}
