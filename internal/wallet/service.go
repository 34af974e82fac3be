package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/pagination"
)

// UserStore resolves wallet owners.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// BalanceView is the customer-facing wallet summary.
type BalanceView struct {
	UserID              uuid.UUID `json:"user_id"`
	CoinBalance         int64     `json:"coin_balance"`
	LifetimeCoinsEarned int64     `json:"lifetime_coins_earned"`
}

// Service exposes wallet reads. Credits happen only inside the settlement
// transaction, through the repository.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (*BalanceView, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionList, error)
}

type service struct {
	repo  Repository
	users UserStore
}

// NewService builds the wallet read service.
func NewService(repo Repository, users UserStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	return &service{repo: repo, users: users}, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BalanceView{
		UserID:              user.ID,
		CoinBalance:         user.CoinBalance,
		LifetimeCoinsEarned: user.LifetimeCoinsEarned,
	}, nil
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionList, error) {
	return s.repo.ListByUser(ctx, userID, params)
}
