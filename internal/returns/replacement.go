package returns

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/internal/orderstate"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/outbox"
	"github.com/risbow/risbow-backend/pkg/outbox/payloads"
)

// createReplacementOrder issues the zero-value COD order that ships the
// customer a fresh unit. It runs on the caller's transaction and is a no-op
// when the return already has a replacement.
func (s *Service) createReplacementOrder(ctx context.Context, tx *gorm.DB, ret *models.ReturnRequest, actor Actor) (*models.ReplacementOrder, error) {
	logCtx := s.logCtx(ctx, ret)
	repo := s.repo.WithTx(tx)

	existing, err := repo.FindReplacement(ctx, ret.ID)
	if err == nil {
		s.logg.Info(s.logg.WithField(logCtx, "new_order_id", existing.NewOrderID.String()), "replacement order already exists")
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logg.Error(logCtx, "replacement lookup failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replacement order")
	}

	link, err := s.issueReplacement(ctx, tx, ret, actor)
	if err != nil {
		s.logg.Error(logCtx, "replacement order creation failed", err)
		return nil, err
	}
	s.logg.Info(s.logg.WithField(logCtx, "new_order_id", link.NewOrderID.String()), "replacement order created")
	return link, nil
}

func (s *Service) issueReplacement(ctx context.Context, tx *gorm.DB, ret *models.ReturnRequest, actor Actor) (*models.ReplacementOrder, error) {
	ordersRepo := s.orders.WithTx(tx)
	original, err := s.loadOrder(ctx, ordersRepo, ret.OrderID)
	if err != nil {
		return nil, err
	}

	items := make(models.OrderItems, len(original.Items))
	copy(items, original.Items)
	replacement, err := ordersRepo.Create(ctx, &models.Order{
		UserID:        original.UserID,
		VendorID:      original.VendorID,
		Status:        enums.OrderStatusConfirmed,
		PaymentMode:   enums.PaymentModeCOD,
		TotalAmount:   decimal.Zero,
		Items:         items,
		AddressID:     original.AddressID,
		RoomID:        original.RoomID,
		IsReplacement: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create replacement order")
	}

	link := &models.ReplacementOrder{
		OriginalOrderID: original.ID,
		ReturnID:        ret.ID,
		NewOrderID:      replacement.ID,
	}
	if err := s.repo.WithTx(tx).CreateReplacement(ctx, link); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link replacement order")
	}

	for _, item := range ret.Items {
		if err := s.inventory.DeductStock(ctx, tx, item.ProductID, item.Quantity, item.VariantID); err != nil {
			return nil, err
		}
	}

	if original.Status.IsHardTerminal() {
		s.logg.Warn(s.logg.WithFields(s.logCtx(ctx, ret), map[string]any{
			"order_status": original.Status,
		}), "original order already terminal, leaving status unchanged")
	} else if err := s.transitions.Apply(ctx, tx, orderstate.TransitionInput{
		OrderID:     original.ID,
		Current:     original.Status,
		Next:        enums.OrderStatusReplaced,
		PaymentMode: original.PaymentMode,
		ActorID:     actor.ID,
		ActorRole:   enums.ActorRoleSystem,
		Reason:      "replacement issued for return " + ret.ReturnNumber,
	}); err != nil {
		return nil, err
	}

	if err := s.emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReplacementOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   replacement.ID,
		Actor:         &outbox.ActorRef{UserID: actor.ID, Role: string(actor.Role)},
		Data: payloads.ReplacementOrderCreatedEvent{
			ReturnID:        ret.ID,
			OriginalOrderID: original.ID,
			NewOrderID:      replacement.ID,
		},
	}); err != nil {
		return nil, err
	}
	return link, nil
}
