package audit

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/db/models"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

const (
	ActionOrderStatusChanged  = "ORDER_STATUS_CHANGED"
	ActionOrderStatusOverride = "ORDER_STATUS_OVERRIDE"
	ActionReturnStatusChanged = "RETURN_STATUS_CHANGED"
	ActionReplacementShipped  = "REPLACEMENT_SHIPPED"
	ActionQCSubmitted         = "RETURN_QC_SUBMITTED"
	ActionRefundForceOverride = "REFUND_FORCE_OVERRIDE"
)

const (
	EntityOrder         = "order"
	EntityReturnRequest = "return_request"
	EntityRefund        = "refund"
)

// Entry is a privileged action to record.
type Entry struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
}

// ListParams filters the audit trail.
type ListParams struct {
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Limit      int
	Cursor     string
}

// ListResult wraps returned entries and the cursor for the next page.
type ListResult struct {
	Items  []models.AuditLog `json:"items"`
	Cursor string            `json:"cursor"`
}

// Service writes and reads the immutable audit trail.
type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit repository required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// LogAdminAction appends an entry. Pass the caller's transaction so the entry
// commits or rolls back with the action it describes.
func (s *Service) LogAdminAction(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit actor id required")
	}
	if strings.TrimSpace(entry.Action) == "" || strings.TrimSpace(entry.EntityType) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit action and entity type required")
	}

	row := &models.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write audit log")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"audit_action": entry.Action,
			"entity_type":  entry.EntityType,
			"entity_id":    entry.EntityID,
			"actor_id":     entry.ActorID.String(),
		})
		s.logg.Info(logCtx, "admin action audited")
	}
	return nil
}

func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{
		Action:     params.Action,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		Limit:      params.Limit,
	}
	if params.ActorID != nil {
		actor := params.ActorID.String()
		query.ActorID = &actor
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs")
	}
	return &ListResult{Items: rows, Cursor: next}, nil
}
