package outbox

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/risbow/risbow-backend/pkg/db/models"
)

// Repository methods all run on a caller-supplied transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(tx *gorm.DB, row *models.OutboxEvent) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Create(row).Error
}

// Claim locks up to limit pending rows, oldest first. Rows at or past
// maxAttempts are parked and never returned.
func (r *Repository) Claim(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	var rows []models.OutboxEvent
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL").
		Where("attempt_count < ?", maxAttempts).
		Order("created_at, id").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Update("published_at", at).Error
}

// RecordFailure bumps attempt_count so the row is retried on a later poll.
func (r *Repository) RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error {
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(map[string]any{
		"last_error":    cause.Error(),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	}).Error
}

// Park pins attempt_count at ceiling so Claim skips the row from now on.
func (r *Repository) Park(tx *gorm.DB, id uuid.UUID, cause error, ceiling int) error {
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(map[string]any{
		"last_error":    cause.Error(),
		"attempt_count": ceiling,
	}).Error
}
