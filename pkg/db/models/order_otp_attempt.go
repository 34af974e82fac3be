package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderOTPAttempt logs one failed verification against an order's OTP.
// Malformed codes are rejected before a row is written.
type OrderOTPAttempt struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	EnteredCode string     `gorm:"column:entered_code;type:text;not null"`
	ActorID     *uuid.UUID `gorm:"column:actor_id;type:uuid"`
	RemoteAddr  string     `gorm:"column:remote_addr;type:text"`
	AttemptedAt time.Time  `gorm:"column:attempted_at;autoCreateTime;index"`
}
