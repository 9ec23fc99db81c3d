package models

import "time"

// Session is one customer device's authorization window at a table.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	TableID   uint      `gorm:"index;not null" json:"table_id"`
	Table     Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"table"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	Active    bool      `gorm:"not null" json:"active"`
}

// Expired reports whether now is at or past the expiry timestamp.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Valid reports whether the session can still authorize requests.
func (s *Session) Valid(now time.Time) bool {
	return s.Active && !s.Expired(now)
}
