package agents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/pkg/db/models"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
)

// Repository exposes delivery agent lookups for pickup booking.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an agents repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads an agent regardless of active state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.db.WithContext(ctx).First(&agent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found")
		}
		return nil, err
	}
	return &agent, nil
}

// FindActive loads an agent that can still be booked for pickups.
func (r *Repository) FindActive(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found")
		}
		return nil, err
	}
	return &agent, nil
}

// ListActive returns all bookable agents, newest first.
func (r *Repository) ListActive(ctx context.Context) ([]models.DeliveryAgent, error) {
	var out []models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
