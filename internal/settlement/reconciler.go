package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/internal/wallet"
	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/logger"
	"github.com/trovamart/returns-backend/pkg/metrics"
)

const reconcileJob = "settlement_reconcile"

// Reconciler sweeps refund ledger entries whose return never reached the
// terminal state and drives each one the rest of the way. It runs the same
// settlement code path, so a repaired return is indistinguishable from one
// settled in a single pass.
type Reconciler struct {
	processor *Processor
	wallet    wallet.Repository
	logg      *logger.Logger
	metrics   *metrics.WorkerMetrics
	batchSize int
}

// NewReconciler wires the reconciliation sweep. Metrics may be nil.
func NewReconciler(processor *Processor, walletRepo wallet.Repository, logg *logger.Logger, workerMetrics *metrics.WorkerMetrics, batchSize int) (*Reconciler, error) {
	if processor == nil {
		return nil, fmt.Errorf("settlement processor required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Reconciler{
		processor: processor,
		wallet:    walletRepo,
		logg:      logg,
		metrics:   workerMetrics,
		batchSize: batchSize,
	}, nil
}

// Report summarizes one reconciliation pass.
type Report struct {
	Scanned  int
	Repaired int
	Skipped  int
	Failed   int
}

// Run executes a single pass over the half-applied settlements. Item failures
// are aggregated, never fatal to the pass.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	started := time.Now()
	report, err := r.run(ctx)
	if r.metrics != nil {
		r.metrics.ObserveDuration(reconcileJob, time.Since(started))
		if err != nil {
			r.metrics.IncFailure(reconcileJob)
		} else {
			r.metrics.IncSuccess(reconcileJob)
		}
	}
	return report, err
}

func (r *Reconciler) run(ctx context.Context) (Report, error) {
	var report Report

	stranded, err := r.wallet.FindUnreconciledRefunds(ctx, r.batchSize)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan unreconciled refunds")
	}
	report.Scanned = len(stranded)

	var errs error
	for _, ledger := range stranded {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, multierr.Append(errs, ctxErr)
		}

		logCtx := r.logg.WithFields(ctx, map[string]any{
			"wallet_transaction_id": ledger.ID.String(),
			"return_id":             refString(ledger),
		})

		repaired, repairErr := r.repair(ctx, ledger)
		switch {
		case repairErr != nil:
			report.Failed++
			errs = multierr.Append(errs, repairErr)
			r.logg.Error(logCtx, "settlement repair failed", repairErr)
		case repaired:
			report.Repaired++
			r.logg.Info(logCtx, "half-applied settlement repaired")
		default:
			report.Skipped++
		}
	}

	return report, errs
}

// repair finishes whatever the original settlement attempt left undone.
func (r *Reconciler) repair(ctx context.Context, ledger models.WalletTransaction) (bool, error) {
	if ledger.ReturnID == nil {
		return false, pkgerrors.New(pkgerrors.CodeSettlement, "refund ledger entry has no return reference").
			WithDetails(map[string]string{"wallet_transaction_id": ledger.ID.String()})
	}

	ret, err := r.processor.workflow.Get(ctx, *ledger.ReturnID)
	if err != nil {
		return false, err
	}

	switch ret.Status {
	case enums.ReturnStatusCompleted:
		// Raced with a concurrent settlement; nothing left to do.
		return false, nil
	case enums.ReturnStatusRefundApproved:
		// Crashed between the credit and the transitions. Settle reuses the
		// existing ledger entry instead of crediting again.
		_, err := r.processor.Settle(ctx, SettleInput{ReturnID: ret.ID, Role: enums.ActorRoleSystem})
		return err == nil, err
	case enums.ReturnStatusRefundProcessed:
		err := r.processor.tx.WithTx(ctx, func(tx *gorm.DB) error {
			_, txErr := r.processor.workflow.TransitionTx(ctx, tx, returns.TransitionInput{
				ReturnID:  ret.ID,
				To:        enums.ReturnStatusCompleted,
				ActorRole: enums.ActorRoleSystem,
				Automatic: true,
			})
			return txErr
		})
		return err == nil, err
	default:
		return false, pkgerrors.New(pkgerrors.CodeSettlement,
			fmt.Sprintf("refund ledger entry exists but return is in status %s", ret.Status)).
			WithDetails(map[string]string{
				"wallet_transaction_id": ledger.ID.String(),
				"return_id":             ret.ID.String(),
			})
	}
}

func refString(ledger models.WalletTransaction) string {
	if ledger.ReturnID == nil {
		return ""
	}
	return ledger.ReturnID.String()
}
