package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	"github.com/risbow/risbow-backend/pkg/logger"
)

type creator interface {
	CreateNotification(ctx context.Context, input CreateInput) (*models.Notification, error)
}

// Dispatcher sends notifications on a best-effort basis. Failures are logged
// and never returned, so callers can fire it after committing primary state.
type Dispatcher struct {
	svc  creator
	logg *logger.Logger
}

func NewDispatcher(svc creator, logg *logger.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, logg: logg}
}

// Notify creates a notification for userID, swallowing any error.
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, title, body string, typ enums.NotificationType, audience enums.NotificationAudience) {
	if d == nil || d.svc == nil || userID == uuid.Nil {
		return
	}
	_, err := d.svc.CreateNotification(ctx, CreateInput{
		UserID:   userID,
		Title:    title,
		Body:     body,
		Type:     typ,
		Audience: audience,
	})
	if err != nil && d.logg != nil {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"notify_user_id": userID.String(),
			"notify_type":    typ,
			"error":          err.Error(),
		})
		d.logg.Warn(logCtx, "notification dispatch failed")
	}
}
