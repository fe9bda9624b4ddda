package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/risbow/risbow-backend/api/responses"
	"github.com/risbow/risbow-backend/api/validators"
	"github.com/risbow/risbow-backend/internal/audit"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

type AuditLister interface {
	List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error)
}

// ListAuditLogs pages through the admin audit trail.
func ListAuditLogs(svc AuditLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := validators.ParseOptionalUUID(r, "actorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		result, err := svc.List(r.Context(), audit.ListParams{
			ActorID:    actorID,
			Action:     strings.TrimSpace(q.Get("action")),
			EntityType: strings.TrimSpace(q.Get("entityType")),
			EntityID:   strings.TrimSpace(q.Get("entityId")),
			Limit:      limit,
			Cursor:     strings.TrimSpace(q.Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
