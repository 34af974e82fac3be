package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical customer identity carrying the coin wallet. Balance
// mutation is a critical section: repositories update it with atomic SQL
// increments, never read-then-blind-write.
type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email               string     `gorm:"type:text;not null;uniqueIndex"`
	FirstName           string     `gorm:"column:first_name;not null"`
	LastName            string     `gorm:"column:last_name;not null"`
	Phone               *string    `gorm:"column:phone"`
	IsActive            bool       `gorm:"column:is_active;not null;default:true"`
	CoinBalance         int64      `gorm:"column:coin_balance;not null;default:0"`
	LifetimeCoinsEarned int64      `gorm:"column:lifetime_coins_earned;not null;default:0"`
	LastLoginAt         *time.Time `gorm:"column:last_login_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
