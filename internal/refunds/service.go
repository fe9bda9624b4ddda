package refunds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

// Filters narrows FindAll. From and To bound created_at inclusively.
type Filters struct {
	Status  *enums.RefundStatus
	Method  *enums.RefundMethod
	UserID  *uuid.UUID
	OrderID *uuid.UUID
	From    *time.Time
	To      *time.Time
	Limit   int
	Cursor  string
}

type StatsFilters struct {
	From *time.Time
	To   *time.Time
}

type ListResult struct {
	Items      []models.Refund `json:"items"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// Stats aggregates refund history. Amounts only count COMPLETED refunds.
type Stats struct {
	Total          int64                        `json:"total"`
	ByStatus       map[enums.RefundStatus]int64 `json:"byStatus"`
	TotalRefunded  decimal.Decimal              `json:"totalRefunded"`
	AverageRefund  decimal.Decimal              `json:"averageRefund"`
	CompletedCount int64                        `json:"completedCount"`
}

// CreateInput mirrors the historical refund payload. It is accepted only to be refused.
type CreateInput struct {
	OrderID         uuid.UUID
	ReturnRequestID *uuid.UUID
	Amount          decimal.Decimal
	Method          enums.RefundMethod
	Reason          string
	Override        *OverrideRequest
}

type Service struct {
	repo    Repository
	metrics *metrics.Domain
	logg    *logger.Logger
}

func NewService(repo Repository, m *metrics.Domain, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("refunds repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, metrics: m, logg: logg}, nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Refund, error) {
	return nil, s.block(ctx, OperationCreate, input.Override)
}

func (s *Service) ProcessRefund(ctx context.Context, id uuid.UUID, override *OverrideRequest) (*models.Refund, error) {
	return nil, s.block(ctx, OperationProcess, override)
}

func (s *Service) RejectRefund(ctx context.Context, id uuid.UUID, reason string) (*models.Refund, error) {
	return nil, s.block(ctx, OperationReject, nil)
}

func (s *Service) block(ctx context.Context, op Operation, override *OverrideRequest) error {
	blocked := Block(op, override)
	s.metrics.ObserveRefundBlocked(string(op))
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"operation":          string(op),
		"override_attempted": blocked.OverrideAttempted,
		"reason_provided":    blocked.ReasonProvided,
	}), "refund write blocked by policy")
	return blocked
}

func (s *Service) FindAll(ctx context.Context, filters Filters) (*ListResult, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid refund status")
	}
	if filters.Method != nil && !filters.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid refund method")
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted")
	}
	if _, err := pagination.ParseCursor(filters.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	return &ListResult{Items: rows, NextCursor: next}, nil
}

func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	refund, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
	}
	return refund, nil
}

func (s *Service) GetStats(ctx context.Context, filters StatsFilters) (*Stats, error) {
	totals, err := s.repo.StatusTotals(ctx, filters.From, filters.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate refunds")
	}
	stats := &Stats{
		ByStatus:      make(map[enums.RefundStatus]int64, len(totals)),
		TotalRefunded: decimal.Zero,
		AverageRefund: decimal.Zero,
	}
	for _, row := range totals {
		stats.Total += row.Count
		stats.ByStatus[row.Status] = row.Count
		if row.Status == enums.RefundStatusCompleted {
			stats.CompletedCount = row.Count
			stats.TotalRefunded = row.Amount
		}
	}
	if stats.CompletedCount > 0 {
		stats.AverageRefund = stats.TotalRefunded.Div(decimal.NewFromInt(stats.CompletedCount)).Round(2)
	}
	return stats, nil
}
