package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of privileged actions.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    uuid.UUID      `gorm:"column:actor_id;type:uuid;not null;index"`
	Action     string         `gorm:"column:action;not null;index"`
	EntityType string         `gorm:"column:entity_type;not null"`
	EntityID   string         `gorm:"column:entity_id;not null;index"`
	Details    map[string]any `gorm:"column:details;type:jsonb;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
