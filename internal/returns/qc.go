package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/internal/audit"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

// EvaluateQC derives the inspection verdict for the checklist variant.
func EvaluateQC(input QCInput) enums.QCStatus {
	switch input.Variant {
	case enums.QCChecklistVariantBoxIntegrity:
		if !input.IsBrandBoxIntact || !input.IsProductIntact {
			return enums.QCStatusFailed
		}
	case enums.QCChecklistVariantCondition:
		if input.HasPhysicalDamage || !input.IsUnused ||
			len(input.MissingAccessories) > 0 || !input.AllAccessoriesPresent {
			return enums.QCStatusFailed
		}
	}
	return enums.QCStatusPassed
}

// SubmitQCChecklist stores the warehouse inspection for an order and advances
// its APPROVED return, if any, to QC_PASSED or QC_FAILED. Once a return holds
// a verdict, only a checklist with the same verdict may be resubmitted.
func (s *Service) SubmitQCChecklist(ctx context.Context, orderID, inspectorID uuid.UUID, input QCInput) (*QCResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if inspectorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "inspector identity missing")
	}
	if !input.Variant.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid checklist variant %q", input.Variant))
	}

	order, err := s.loadOrder(ctx, s.orders, orderID)
	if err != nil {
		return nil, err
	}
	vendorID := order.VendorID
	if input.VendorID != nil && *input.VendorID != uuid.Nil {
		vendorID = *input.VendorID
	}
	status := EvaluateQC(input)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     orderID.String(),
		"inspector_id": inspectorID.String(),
		"variant":      input.Variant,
		"qc_status":    status,
	})

	var (
		result QCResult
		after  []func(context.Context)
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureVerdictUnchanged(ctx, repo, orderID, status); err != nil {
			return err
		}
		stored, err := repo.UpsertQCChecklist(ctx, &models.ReturnQCChecklist{
			OrderID:               orderID,
			VendorID:              vendorID,
			InspectorID:           inspectorID,
			Variant:               input.Variant,
			IsBrandBoxIntact:      input.IsBrandBoxIntact,
			IsProductIntact:       input.IsProductIntact,
			IsOriginalPackaging:   input.IsOriginalPackaging,
			IsUnused:              input.IsUnused,
			AllAccessoriesPresent: input.AllAccessoriesPresent,
			HasPhysicalDamage:     input.HasPhysicalDamage,
			IMEIMatch:             input.IMEIMatch,
			MissingAccessories:    input.MissingAccessories,
			Images:                input.Images,
			Notes:                 input.Notes,
			Status:                status,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store qc checklist")
		}
		result.Checklist = stored

		if status == enums.QCStatusPassed {
			if err := s.orders.WithTx(tx).SetReturnReceived(ctx, orderID, s.now().UTC()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark return received")
			}
		}

		if err := s.audit.LogAdminAction(ctx, tx, audit.Entry{
			ActorID:    inspectorID,
			Action:     audit.ActionQCSubmitted,
			EntityType: audit.EntityOrder,
			EntityID:   orderID.String(),
			Details: map[string]any{
				"variant": string(input.Variant),
				"status":  string(status),
			},
		}); err != nil {
			return err
		}

		ret, err := repo.FindByOrderAndStatus(ctx, orderID, enums.ReturnStatusApproved)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load approved return")
		}
		next := enums.ReturnStatusQCPassed
		if status == enums.QCStatusFailed {
			next = enums.ReturnStatusQCFailed
		}
		notes := fmt.Sprintf("%s inspection %s", input.Variant, status)
		effects, err := s.transition(ctx, tx, ret, transitionRequest{
			to:    next,
			notes: &notes,
			actor: Actor{ID: inspectorID, Role: enums.ActorRoleSystem},
		})
		if err != nil {
			return err
		}
		after = effects
		result.Return, err = repo.FindDetailed(ctx, ret.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload return request")
		}
		return nil
	})
	if err != nil {
		s.logg.Error(logCtx, "qc checklist submission failed", err)
		return nil, err
	}

	if status == enums.QCStatusFailed {
		s.logg.Warn(logCtx, "qc inspection failed")
	} else {
		s.logg.Info(logCtx, "qc inspection passed")
	}
	for _, effect := range after {
		effect(ctx)
	}
	return &result, nil
}

var qcVerdicts = map[enums.ReturnStatus]enums.QCStatus{
	enums.ReturnStatusQCPassed: enums.QCStatusPassed,
	enums.ReturnStatusQCFailed: enums.QCStatusFailed,
}

func ensureVerdictUnchanged(ctx context.Context, repo Repository, orderID uuid.UUID, status enums.QCStatus) error {
	for returnStatus, verdict := range qcVerdicts {
		ret, err := repo.FindByOrderAndStatus(ctx, orderID, returnStatus)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inspected return")
		}
		if verdict != status {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("return %s is already %s", ret.ReturnNumber, returnStatus))
		}
	}
	return nil
}
