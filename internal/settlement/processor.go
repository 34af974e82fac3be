package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/internal/refund"
	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/internal/wallet"
	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/metrics"
	"github.com/trovamart/returns-backend/pkg/outbox"
	"github.com/trovamart/returns-backend/pkg/outbox/payloads"
	"github.com/trovamart/returns-backend/pkg/types"
)

const walletLockTTL = 30 * time.Second

// ReturnWorkflow is the slice of the return service settlement drives.
type ReturnWorkflow interface {
	Get(ctx context.Context, returnID uuid.UUID) (*models.Return, error)
	TransitionTx(ctx context.Context, tx *gorm.DB, input returns.TransitionInput) (*models.Return, error)
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type walletLocker interface {
	AcquireWalletLock(ctx context.Context, userID, holder string, ttl time.Duration) (bool, error)
	ReleaseWalletLock(ctx context.Context, userID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type clock func() time.Time

// SettleInput identifies the return to pay out and who asked for it.
type SettleInput struct {
	ReturnID uuid.UUID
	ActorID  uuid.UUID
	Role     enums.ActorRole
}

// Processor credits the customer wallet for an approved refund and walks the
// return through its terminal transitions. Settling the same return twice is
// always a state conflict, never a double credit.
type Processor struct {
	workflow   ReturnWorkflow
	wallet     wallet.Repository
	users      userStore
	locks      walletLocker
	tx         txRunner
	outbox     outboxPublisher
	calculator refund.Calculator
	metrics    *metrics.SettlementMetrics
	now        clock
}

// NewProcessor wires the settlement dependencies. Metrics may be nil.
func NewProcessor(
	workflow ReturnWorkflow,
	walletRepo wallet.Repository,
	users userStore,
	locks walletLocker,
	tx txRunner,
	outboxSvc outboxPublisher,
	calculator refund.Calculator,
	settlementMetrics *metrics.SettlementMetrics,
) (*Processor, error) {
	if workflow == nil {
		return nil, fmt.Errorf("return workflow required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if locks == nil {
		return nil, fmt.Errorf("wallet locker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &Processor{
		workflow:   workflow,
		wallet:     walletRepo,
		users:      users,
		locks:      locks,
		tx:         tx,
		outbox:     outboxSvc,
		calculator: calculator,
		metrics:    settlementMetrics,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Settle pays out one approved refund. The wallet credit, the ledger entry,
// the processing latch and both terminal transitions commit in a single
// transaction guarded by a per-wallet lock.
func (p *Processor) Settle(ctx context.Context, input SettleInput) (*models.Return, error) {
	started := p.now()
	ret, err := p.settle(ctx, input)
	p.observe(started, err)
	return ret, err
}

func (p *Processor) settle(ctx context.Context, input SettleInput) (*models.Return, error) {
	ret, err := p.workflow.Get(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}

	if err := p.authorize(ret, input); err != nil {
		return nil, err
	}

	if ret.Refund.Processing.Status == enums.ProcessingStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "settlement already completed")
	}
	if ret.Status != enums.ReturnStatusRefundApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("return in status %s cannot be settled", ret.Status))
	}
	decision := ret.Refund.Decision
	if decision == nil || !decision.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeSettlement, "no approved refund decision on record")
	}
	if _, err := p.calculator.Backfill(&ret.Refund); err != nil {
		return nil, err
	}
	if decision.FinalCoins == nil {
		return nil, pkgerrors.New(pkgerrors.CodeSettlement, "refund decision missing final amount")
	}
	coins := *decision.FinalCoins

	// The customer row must exist before any money moves.
	customer, err := p.users.FindByID(ctx, ret.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeSettlement, "refund target account missing")
	}

	holder := fmt.Sprintf("settlement-%s", ret.ID)
	acquired, err := p.locks.AcquireWalletLock(ctx, customer.ID.String(), holder, walletLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire wallet lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "wallet is busy, retry shortly")
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = p.locks.ReleaseWalletLock(releaseCtx, customer.ID.String())
	}()

	// A ledger entry without a completed return means a prior attempt died
	// between the credit and the transitions. Reuse it instead of paying twice.
	existing, err := p.wallet.FindRefundByReturn(ctx, ret.ID)
	if err != nil {
		return nil, err
	}

	var settled *models.Return
	err = p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := existing
		if ledger == nil {
			created, creditErr := p.credit(ctx, tx, ret, coins, input)
			if creditErr != nil {
				return creditErr
			}
			ledger = created
		}

		completed, completeErr := p.complete(ctx, tx, ret.ID, ledger, input)
		if completeErr != nil {
			return completeErr
		}
		settled = completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.AddCoinsCredited(coins)
	}
	return settled, nil
}

func (p *Processor) authorize(ret *models.Return, input SettleInput) error {
	switch input.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return nil
	case enums.ActorRoleWarehouse:
		if ret.Warehouse == nil || ret.Warehouse.AssignedManagerID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "return has no assigned warehouse manager")
		}
		if *ret.Warehouse.AssignedManagerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "return is assigned to a different manager")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot settle refunds")
	}
}

func (p *Processor) credit(ctx context.Context, tx *gorm.DB, ret *models.Return, coins int64, input SettleInput) (*models.WalletTransaction, error) {
	repo := p.wallet.WithTx(tx)

	balance, err := repo.Credit(ctx, ret.CustomerID, coins)
	if err != nil {
		return nil, err
	}

	orderID := ret.OrderID
	returnID := ret.ID
	ledger := &models.WalletTransaction{
		ID:           uuid.New(),
		UserID:       ret.CustomerID,
		Type:         enums.WalletTransactionTypeRefund,
		Coins:        coins,
		BalanceAfter: balance,
		OrderID:      &orderID,
		ReturnID:     &returnID,
		Deductions:   ret.Refund.Decision.Deductions,
	}
	if input.ActorID != uuid.Nil {
		actorID := input.ActorID
		ledger.ActorID = &actorID
	}
	if err := repo.CreateTransaction(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// complete stamps the processing latch, emits the settled event and chains the
// two automatic transitions to the terminal state.
func (p *Processor) complete(ctx context.Context, tx *gorm.DB, returnID uuid.UUID, ledger *models.WalletTransaction, input SettleInput) (*models.Return, error) {
	now := p.now()

	var processedBy *uuid.UUID
	if input.ActorID != uuid.Nil {
		actorID := input.ActorID
		processedBy = &actorID
	}

	processed, err := p.workflow.TransitionTx(ctx, tx, returns.TransitionInput{
		ReturnID:  returnID,
		To:        enums.ReturnStatusRefundProcessed,
		ActorRole: enums.ActorRoleSystem,
		Automatic: true,
		Mutate: func(ret *models.Return) error {
			if _, err := p.calculator.Backfill(&ret.Refund); err != nil {
				return err
			}
			ret.Refund.Processing = types.ProcessingRecord{
				Status:              enums.ProcessingStatusCompleted,
				ProcessedBy:         processedBy,
				ProcessedAt:         &now,
				WalletTransactionID: &ledger.ID,
				CoinsCredited:       ledger.Coins,
			}
			return nil
		},
		After: func(tx *gorm.DB, ret *models.Return) error {
			return p.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventRefundSettled,
				AggregateType: enums.AggregateWalletTransaction,
				AggregateID:   ledger.ID,
				Data: payloads.RefundSettledEvent{
					ReturnID:            ret.ID,
					OrderID:             ret.OrderID,
					CustomerID:          ret.CustomerID,
					WalletTransactionID: ledger.ID,
					CoinsCredited:       ledger.Coins,
					BalanceAfter:        ledger.BalanceAfter,
					SettledAt:           now,
				},
				OccurredAt: now,
			})
		},
	})
	if err != nil {
		return nil, err
	}

	return p.workflow.TransitionTx(ctx, tx, returns.TransitionInput{
		ReturnID:  processed.ID,
		To:        enums.ReturnStatusCompleted,
		ActorRole: enums.ActorRoleSystem,
		Automatic: true,
	})
}

func (p *Processor) observe(started time.Time, err error) {
	if p.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		if settlementErr := pkgerrors.As(err); settlementErr != nil {
			switch settlementErr.Code() {
			case pkgerrors.CodeStateConflict, pkgerrors.CodeConflict:
				outcome = "conflict"
			}
		}
	}
	p.metrics.IncSettlement(outcome)
	p.metrics.ObserveSettlementDuration(p.now().Sub(started))
}
