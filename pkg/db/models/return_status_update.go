package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/enums"
)

// ReturnStatusUpdate is one entry in the append-only audit trail. Rows are
// never updated or deleted; the return's status must equal the to_status of
// the most recent entry.
type ReturnStatusUpdate struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReturnID   uuid.UUID          `gorm:"column:return_id;type:uuid;not null;index"`
	FromStatus enums.ReturnStatus `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.ReturnStatus `gorm:"column:to_status;type:text;not null"`
	ActorID    *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	ActorRole  enums.ActorRole    `gorm:"column:actor_role;type:text;not null"`
	Notes      *string            `gorm:"column:notes"`
	Automatic  bool               `gorm:"column:automatic;not null;default:false"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
