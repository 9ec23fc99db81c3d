package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

type CallType string

const (
	CallTypeWaiter CallType = "WAITER"
	CallTypeBill   CallType = "BILL"
)

// CallTypes lists every request kind a customer can raise.
var CallTypes = []CallType{CallTypeWaiter, CallTypeBill}

// ParseCallType matches raw against the known call types, ignoring case.
func ParseCallType(raw string) (CallType, error) {
	candidate := CallType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, t := range CallTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", errors.Errorf("invalid call type: %s", raw)
}

type Call struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TableID   uint      `gorm:"not null;index:idx_calls_table_type" json:"table_id"`
	Table     Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table"`
	Type      CallType  `gorm:"type:varchar(20);not null;index:idx_calls_table_type" json:"type"`
	Resolved  bool      `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
