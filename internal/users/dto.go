package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/db/models"
)

// UserDTO is the transport shape for customer identities. The coin balance
// travels with it so clients can render the wallet without a second call.
type UserDTO struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Phone               *string    `json:"phone,omitempty"`
	IsActive            bool       `json:"is_active"`
	CoinBalance         int64      `json:"coin_balance"`
	LifetimeCoinsEarned int64      `json:"lifetime_coins_earned"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email     string
	FirstName string
	LastName  string
	Phone     *string
	IsActive  *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                  u.ID,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Phone:               u.Phone,
		IsActive:            u.IsActive,
		CoinBalance:         u.CoinBalance,
		LifetimeCoinsEarned: u.LifetimeCoinsEarned,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		IsActive:  isActive,
	}
}
