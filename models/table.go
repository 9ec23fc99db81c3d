package models

import "time"

type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Number    string    `gorm:"type:varchar(50);not null" json:"number"`
	Location  string    `gorm:"type:varchar(255)" json:"location"`
	Category  string    `gorm:"type:varchar(50)" json:"category"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
