package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

// Repository persists audit entries. It deliberately has no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, params listParams) ([]models.AuditLog, string, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	ActorID    *string
	Action     string
	EntityType string
	EntityID   string
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.AuditLog, string, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if params.ActorID != nil {
		query = query.Where("actor_id = ?", *params.ActorID)
	}
	for _, f := range [...]struct{ column, value string }{
		{"action", params.Action},
		{"entity_type", params.EntityType},
		{"entity_id", params.EntityID},
	} {
		if f.value != "" {
			query = query.Where(f.column+" = ?", f.value)
		}
	}

	var rows []models.AuditLog
	if err := query.Scopes(pagination.Keyset("created_at", params.Cursor, params.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, params.Limit, func(entry models.AuditLog) pagination.Cursor {
		return pagination.Cursor{CreatedAt: entry.CreatedAt, ID: entry.ID}
	})
	return page, next, nil
}
