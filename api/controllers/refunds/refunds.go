package refunds

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/risbow/risbow-backend/api/controllers/actorcontext"
	"github.com/risbow/risbow-backend/api/responses"
	"github.com/risbow/risbow-backend/api/validators"
	internalrefunds "github.com/risbow/risbow-backend/internal/refunds"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

// Service is the refund surface: reads plus the always-blocked writes.
type Service interface {
	Create(ctx context.Context, input internalrefunds.CreateInput) (*models.Refund, error)
	ProcessRefund(ctx context.Context, id uuid.UUID, override *internalrefunds.OverrideRequest) (*models.Refund, error)
	RejectRefund(ctx context.Context, id uuid.UUID, reason string) (*models.Refund, error)
	FindAll(ctx context.Context, filters internalrefunds.Filters) (*internalrefunds.ListResult, error)
	FindOne(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	GetStats(ctx context.Context, filters internalrefunds.StatsFilters) (*internalrefunds.Stats, error)
}

type Overrider interface {
	ForceRefund(ctx context.Context, input internalrefunds.ForceRefundInput) (*models.Refund, error)
}

type createRequest struct {
	OrderID         string          `json:"orderId"`
	ReturnRequestID *string         `json:"returnRequestId"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	Reason          string          `json:"reason"`
	ForceRefund     bool            `json:"forceRefund"`
	OverrideReason  string          `json:"overrideReason"`
}

type processRequest struct {
	ForceRefund bool   `json:"forceRefund"`
	Reason      string `json:"reason"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type forceRequest struct {
	OrderID         string          `json:"orderId" validate:"required,uuid"`
	ReturnRequestID *string         `json:"returnRequestId" validate:"omitempty,uuid"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method" validate:"required"`
	ForceRefund     bool            `json:"forceRefund"`
	Reason          string          `json:"reason" validate:"max=500"`
}

// Create is kept so callers get the policy refusal instead of a 404.
func Create(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalrefunds.CreateInput{
			Amount: body.Amount,
			Method: enums.RefundMethod(strings.ToUpper(strings.TrimSpace(body.Method))),
			Reason: body.Reason,
			Override: &internalrefunds.OverrideRequest{
				ForceRefund: body.ForceRefund,
				Reason:      body.OverrideReason,
			},
		}
		if id, err := uuid.Parse(strings.TrimSpace(body.OrderID)); err == nil {
			input.OrderID = id
		}
		_, err := svc.Create(r.Context(), input)
		responses.WriteError(r.Context(), logg, w, err)
	}
}

func Process(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseRefundID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body processRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		_, err = svc.ProcessRefund(r.Context(), id, &internalrefunds.OverrideRequest{ForceRefund: body.ForceRefund, Reason: body.Reason})
		responses.WriteError(r.Context(), logg, w, err)
	}
}

func Reject(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseRefundID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		_, err = svc.RejectRefund(r.Context(), id, body.Reason)
		responses.WriteError(r.Context(), logg, w, err)
	}
}

func List(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.FindAll(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseRefundID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refund, err := svc.FindOne(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, refund)
	}
}

func Stats(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters internalrefunds.StatsFilters
		var err error
		if filters.From, err = validators.ParseOptionalTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.To, err = validators.ParseOptionalTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.GetStats(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// Force records an audited refund past the policy block.
func Force(svc Overrider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund override unavailable"))
			return
		}
		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body forceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(body.OrderID, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalrefunds.ForceRefundInput{
			ActorID:     actor.UserID,
			ActorRole:   actor.Role,
			ForceRefund: body.ForceRefund,
			Reason:      validators.SanitizeString(body.Reason, 500),
			OrderID:     orderID,
			Amount:      body.Amount,
			Method:      enums.RefundMethod(strings.ToUpper(strings.TrimSpace(body.Method))),
		}
		if body.ReturnRequestID != nil {
			returnID, err := validators.ParseUUIDParam(*body.ReturnRequestID, "returnRequestId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.ReturnRequestID = &returnID
		}
		refund, err := svc.ForceRefund(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, refund)
	}
}

func parseRefundID(r *http.Request) (uuid.UUID, error) {
	return validators.ParseUUIDParam(chi.URLParam(r, "refundId"), "refundId")
}

func parseFilters(r *http.Request) (internalrefunds.Filters, error) {
	var filters internalrefunds.Filters
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	q := r.URL.Query()
	filters.Cursor = strings.TrimSpace(q.Get("cursor"))

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseRefundStatus(strings.ToUpper(raw))
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund status")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("method")); raw != "" {
		method, err := enums.ParseRefundMethod(strings.ToUpper(raw))
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund method")
		}
		filters.Method = &method
	}
	if filters.UserID, err = validators.ParseOptionalUUID(r, "userId"); err != nil {
		return filters, err
	}
	if filters.OrderID, err = validators.ParseOptionalUUID(r, "orderId"); err != nil {
		return filters, err
	}
	if filters.From, err = validators.ParseOptionalTime(r, "from"); err != nil {
		return filters, err
	}
	if filters.To, err = validators.ParseOptionalTime(r, "to"); err != nil {
		return filters, err
	}
	return filters, nil
}
