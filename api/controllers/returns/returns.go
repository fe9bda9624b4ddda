package returns

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/api/controllers/actorcontext"
	"github.com/risbow/risbow-backend/api/responses"
	"github.com/risbow/risbow-backend/api/validators"
	internalreturns "github.com/risbow/risbow-backend/internal/returns"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

// Service is the slice of the return engine exposed over HTTP.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input internalreturns.CreateInput) (*models.ReturnRequest, error)
	FindAll(ctx context.Context, filters internalreturns.Filters) (*internalreturns.ListResult, error)
	FindOne(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	FindOneForUser(ctx context.Context, id, userID uuid.UUID) (*models.ReturnRequest, error)
	FindOneForVendor(ctx context.Context, id, vendorID uuid.UUID) (*models.ReturnRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, input internalreturns.UpdateStatusInput, actor internalreturns.Actor) (*models.ReturnRequest, error)
	VendorDecision(ctx context.Context, id uuid.UUID, input internalreturns.VendorDecisionInput) (*models.ReturnRequest, error)
	ShipReplacement(ctx context.Context, id uuid.UUID, trackingID string, adminID uuid.UUID) (*models.ReturnRequest, error)
	SubmitQCChecklist(ctx context.Context, orderID, inspectorID uuid.UUID, input internalreturns.QCInput) (*internalreturns.QCResult, error)
}

type createItemRequest struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	VariantID *string `json:"variantId" validate:"omitempty,uuid"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Condition string  `json:"condition" validate:"required"`
	Reason    *string `json:"reason" validate:"omitempty,max=500"`
}

type createRequest struct {
	OrderID        string              `json:"orderId" validate:"required,uuid"`
	Reason         string              `json:"reason" validate:"required,notblank"`
	Description    *string             `json:"description" validate:"omitempty,max=2000"`
	EvidenceImages []string            `json:"evidenceImages" validate:"max=10,dive,required"`
	EvidenceVideo  *string             `json:"evidenceVideo"`
	Items          []createItemRequest `json:"items" validate:"required,min=1,dive"`
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason" validate:"max=500"`
}

type statusRequest struct {
	Status          string  `json:"status" validate:"required"`
	Notes           *string `json:"notes" validate:"omitempty,max=2000"`
	RejectionReason *string `json:"rejectionReason" validate:"omitempty,max=500"`
}

type shipRequest struct {
	TrackingID string `json:"trackingId" validate:"required,notblank,max=128"`
}

type qcRequest struct {
	VendorID              *string  `json:"vendorId" validate:"omitempty,uuid"`
	Variant               string   `json:"variant"`
	IsBrandBoxIntact      bool     `json:"isBrandBoxIntact"`
	IsProductIntact       bool     `json:"isProductIntact"`
	IsOriginalPackaging   bool     `json:"isOriginalPackaging"`
	IsUnused              bool     `json:"isUnused"`
	AllAccessoriesPresent bool     `json:"allAccessoriesPresent"`
	HasPhysicalDamage     bool     `json:"hasPhysicalDamage"`
	IMEIMatch             *bool    `json:"imeiMatch"`
	MissingAccessories    []string `json:"missingAccessories"`
	Images                []string `json:"images"`
	Notes                 *string  `json:"notes" validate:"omitempty,max=2000"`
}

// Create files a return for a delivered order the caller owns.
func Create(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}
		userID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := svc.Create(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ret)
	}
}

func CustomerList(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseFilters(r, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.UserID = &userID
		list, err := svc.FindAll(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CustomerDetail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseReturnID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := svc.FindOneForUser(r.Context(), id, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

func VendorList(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseFilters(r, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.VendorID = &vendorID
		list, err := svc.FindAll(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func VendorDetail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseReturnID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := svc.FindOneForVendor(r.Context(), id, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// VendorDecision approves or rejects a pending return for the caller's products.
func VendorDecision(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := actorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseReturnID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body decisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := svc.VendorDecision(r.Context(), id, internalreturns.VendorDecisionInput{
			VendorID: vendorID,
			ActorID:  actor.UserID,
			Approve:  body.Approve,
			Reason:   validators.SanitizeString(body.Reason, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

func AdminList(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseFilters(r, true)
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

func AdminDetail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseReturnID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := svc.FindOne(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// AdminUpdateStatus drives the return graph on behalf of an administrator.
func AdminUpdateStatus(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseReturnID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := svc.UpdateStatus(r.Context(), id, internalreturns.UpdateStatusInput{
			Status:          status,
			Notes:           body.Notes,
			RejectionReason: body.RejectionReason,
		}, internalreturns.Actor{ID: actor.UserID, Role: actor.Role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

func ShipReplacement(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseReturnID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body shipRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := svc.ShipReplacement(r.Context(), id, strings.TrimSpace(body.TrackingID), adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// SubmitQC records a warehouse inspection for the order's returned goods.
func SubmitQC(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inspectorID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body qcRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.SubmitQCChecklist(r.Context(), orderID, inspectorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func (b createRequest) toInput() (internalreturns.CreateInput, error) {
	orderID, err := validators.ParseUUIDParam(b.OrderID, "orderId")
	if err != nil {
		return internalreturns.CreateInput{}, err
	}
	reason, err := enums.ParseReturnReason(strings.ToUpper(strings.TrimSpace(b.Reason)))
	if err != nil {
		return internalreturns.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return reason")
	}
	input := internalreturns.CreateInput{
		OrderID:        orderID,
		Reason:         reason,
		Description:    b.Description,
		EvidenceImages: b.EvidenceImages,
		EvidenceVideo:  b.EvidenceVideo,
		Items:          make([]internalreturns.CreateItemInput, 0, len(b.Items)),
	}
	for _, item := range b.Items {
		productID, err := validators.ParseUUIDParam(item.ProductID, "productId")
		if err != nil {
			return input, err
		}
		condition, err := enums.ParseReturnItemCondition(strings.ToUpper(strings.TrimSpace(item.Condition)))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item condition")
		}
		line := internalreturns.CreateItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Condition: condition,
			Reason:    item.Reason,
		}
		if item.VariantID != nil {
			variantID, err := validators.ParseUUIDParam(*item.VariantID, "variantId")
			if err != nil {
				return input, err
			}
			line.VariantID = &variantID
		}
		input.Items = append(input.Items, line)
	}
	return input, nil
}

func (b qcRequest) toInput() (internalreturns.QCInput, error) {
	input := internalreturns.QCInput{
		Variant:               enums.QCChecklistVariantCondition,
		IsBrandBoxIntact:      b.IsBrandBoxIntact,
		IsProductIntact:       b.IsProductIntact,
		IsOriginalPackaging:   b.IsOriginalPackaging,
		IsUnused:              b.IsUnused,
		AllAccessoriesPresent: b.AllAccessoriesPresent,
		HasPhysicalDamage:     b.HasPhysicalDamage,
		IMEIMatch:             b.IMEIMatch,
		MissingAccessories:    b.MissingAccessories,
		Images:                b.Images,
		Notes:                 b.Notes,
	}
	if raw := strings.TrimSpace(b.Variant); raw != "" {
		variant, err := enums.ParseQCChecklistVariant(strings.ToUpper(raw))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checklist variant")
		}
		input.Variant = variant
	}
	if b.VendorID != nil {
		vendorID, err := validators.ParseUUIDParam(*b.VendorID, "vendorId")
		if err != nil {
			return input, err
		}
		input.VendorID = &vendorID
	}
	return input, nil
}

func parseReturnID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "returnId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "return id is required")
	}
	return validators.ParseUUIDParam(raw, "returnId")
}

func parseStatus(raw string) (enums.ReturnStatus, error) {
	status, err := enums.ParseReturnStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return status")
	}
	return status, nil
}

func parseFilters(r *http.Request, admin bool) (internalreturns.Filters, error) {
	var filters internalreturns.Filters

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	filters.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := parseStatus(raw)
		if err != nil {
			return filters, err
		}
		filters.Status = &status
	}
	if filters.OrderID, err = validators.ParseOptionalUUID(r, "orderId"); err != nil {
		return filters, err
	}
	if !admin {
		return filters, nil
	}
	if filters.UserID, err = validators.ParseOptionalUUID(r, "userId"); err != nil {
		return filters, err
	}
	if filters.VendorID, err = validators.ParseOptionalUUID(r, "vendorId"); err != nil {
		return filters, err
	}
	return filters, nil
}
