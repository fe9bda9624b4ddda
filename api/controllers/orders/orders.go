package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/api/controllers/actorcontext"
	"github.com/risbow/risbow-backend/api/responses"
	"github.com/risbow/risbow-backend/api/validators"
	internalorders "github.com/risbow/risbow-backend/internal/orders"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

const maxReasonLen = 500

type statusRequest struct {
	Status        string `json:"status" validate:"required,notblank"`
	AllowOverride bool   `json:"allowOverride"`
	Reason        string `json:"reason" validate:"max=500"`
}

// scopeFunc pins the caller's identity onto list filters.
type scopeFunc func(r *http.Request, filters *internalorders.ListFilters) error

// loadFunc fetches one order as the caller is allowed to see it.
type loadFunc func(r *http.Request, orderID uuid.UUID) (*models.Order, error)

// inputFunc turns a decoded status request into a service call.
type inputFunc func(r *http.Request, body statusRequest, in *internalorders.UpdateStatusInput) error

// CustomerList returns the caller's own orders.
func CustomerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listOrders(svc, logg, false, func(r *http.Request, f *internalorders.ListFilters) error {
		userID, err := actorcontext.ResolveUserID(r)
		f.UserID = &userID
		return err
	})
}

// VendorList returns orders containing the caller's products.
func VendorList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listOrders(svc, logg, false, func(r *http.Request, f *internalorders.ListFilters) error {
		vendorID, err := actorcontext.ResolveVendorID(r)
		f.VendorID = &vendorID
		return err
	})
}

// AdminList pages through every order with the full filter set.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listOrders(svc, logg, true, nil)
}

func CustomerDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return showOrder(logg, func(r *http.Request, orderID uuid.UUID) (*models.Order, error) {
		userID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			return nil, err
		}
		return svc.GetForCustomer(r.Context(), orderID, userID)
	})
}

// CustomerCancel cancels an order the caller owns while it is still cancellable.
func CustomerCancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return showOrder(logg, func(r *http.Request, orderID uuid.UUID) (*models.Order, error) {
		userID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			return nil, err
		}
		return svc.CancelOrder(r.Context(), orderID, userID)
	})
}

func VendorDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return showOrder(logg, func(r *http.Request, orderID uuid.UUID) (*models.Order, error) {
		vendorID, err := actorcontext.ResolveVendorID(r)
		if err != nil {
			return nil, err
		}
		return svc.GetForVendor(r.Context(), orderID, vendorID)
	})
}

func AdminDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return showOrder(logg, func(r *http.Request, orderID uuid.UUID) (*models.Order, error) {
		return svc.Get(r.Context(), orderID)
	})
}

// VendorUpdateStatus moves a vendor's order along the fulfilment flow.
// Vendors never get the override path.
func VendorUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return updateStatus(svc, logg, func(r *http.Request, _ statusRequest, in *internalorders.UpdateStatusInput) error {
		vendorID, err := actorcontext.ResolveVendorID(r)
		if err != nil {
			return err
		}
		in.ActorRole = enums.ActorRoleVendor
		in.VendorID = &vendorID
		return nil
	})
}

// AdminUpdateStatus applies an admin transition. allowOverride needs a reason.
func AdminUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return updateStatus(svc, logg, func(_ *http.Request, body statusRequest, in *internalorders.UpdateStatusInput) error {
		in.AllowOverride = body.AllowOverride
		in.Reason = validators.SanitizeString(body.Reason, maxReasonLen)
		return nil
	})
}

func listOrders(svc internalorders.Service, logg *logger.Logger, admin bool, scope scopeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		params, filters, err := parseList(r, admin)
		if err == nil && scope != nil {
			err = scope(r, &filters)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListOrders(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func showOrder(logg *logger.Logger, load loadFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := load(r, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func updateStatus(svc internalorders.Service, logg *logger.Logger, fill inputFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeStatusUpdate(r, fill)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateStatus(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func decodeStatusUpdate(r *http.Request, fill inputFunc) (internalorders.UpdateStatusInput, error) {
	var in internalorders.UpdateStatusInput
	actor, err := actorcontext.ResolveActor(r)
	if err != nil {
		return in, err
	}
	if in.OrderID, err = parseOrderID(r); err != nil {
		return in, err
	}
	var body statusRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return in, err
	}
	if in.Status, err = parseStatus(body.Status); err != nil {
		return in, err
	}
	in.ActorID = actor.UserID
	in.ActorRole = actor.Role
	return in, fill(r, body, &in)
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return validators.ParseUUIDParam(raw, "orderId")
}

func parseStatus(raw string) (enums.OrderStatus, error) {
	status, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}
	return status, nil
}

// parseList reads limit, cursor, status and paymentMode for every caller.
// Admins may also filter by user, vendor and a created_at range.
func parseList(r *http.Request, admin bool) (pagination.Params, internalorders.ListFilters, error) {
	var (
		filters internalorders.ListFilters
		params  pagination.Params
		err     error
	)
	q := r.URL.Query()
	if params.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return params, filters, err
	}
	params.Cursor = strings.TrimSpace(q.Get("cursor"))

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := parseStatus(raw)
		if err != nil {
			return params, filters, err
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("paymentMode")); raw != "" {
		mode, err := enums.ParsePaymentMode(strings.ToUpper(raw))
		if err != nil {
			return params, filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment mode")
		}
		filters.PaymentMode = &mode
	}
	if !admin {
		return params, filters, nil
	}

	for _, opt := range []struct {
		key string
		dst **uuid.UUID
	}{{"userId", &filters.UserID}, {"vendorId", &filters.VendorID}} {
		if *opt.dst, err = validators.ParseOptionalUUID(r, opt.key); err != nil {
			return params, filters, err
		}
	}
	if filters.DateFrom, err = validators.ParseOptionalTime(r, "from"); err != nil {
		return params, filters, err
	}
	if filters.DateTo, err = validators.ParseOptionalTime(r, "to"); err != nil {
		return params, filters, err
	}
	return params, filters, nil
}
