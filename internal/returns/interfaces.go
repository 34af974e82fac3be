package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	"github.com/trovamart/returns-backend/pkg/outbox"
	"github.com/trovamart/returns-backend/pkg/pagination"
)

// Repository defines persistence operations for the return aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ret *models.Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error)
	FindWithHistory(ctx context.Context, id uuid.UUID) (*models.Return, error)
	FindByRequestID(ctx context.Context, requestID string) (*models.Return, error)
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ReturnList, error)
	ListByStatus(ctx context.Context, statuses []enums.ReturnStatus, params pagination.Params) (*ReturnList, error)
	// UpdateVersioned persists the mutated aggregate only if the stored
	// version still matches expectedVersion, bumping it by one. A stale
	// version surfaces as a state-conflict error.
	UpdateVersioned(ctx context.Context, ret *models.Return, expectedVersion int64) error
	AppendStatusUpdate(ctx context.Context, update *models.ReturnStatusUpdate) error
	CreateItems(ctx context.Context, items []models.ReturnItem) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderStore is the slice of the order projection this service depends on.
type OrderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SetReturnStateTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, hasActiveReturn bool, lastStatus *enums.ReturnStatus) error
}

// AgentStore validates that a pickup is booked against a real, active agent.
type AgentStore interface {
	FindActive(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error)
}

type clock func() time.Time
