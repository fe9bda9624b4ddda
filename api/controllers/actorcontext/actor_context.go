// Package actorcontext resolves the authenticated caller for controllers.
package actorcontext

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/api/middleware"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

// Actor is the caller as seen by the domain services.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
}

// ResolveUserID extracts the authenticated user.
func ResolveUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// ResolveVendorID extracts the caller's vendor and enforces vendor access.
func ResolveVendorID(r *http.Request) (uuid.UUID, error) {
	ctx := r.Context()
	if enums.ActorRole(middleware.RoleFromContext(ctx)) != enums.ActorRoleVendor {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	raw := middleware.VendorIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id")
	}
	return id, nil
}

// ResolveActor returns the full caller identity.
func ResolveActor(r *http.Request) (Actor, error) {
	userID, err := ResolveUserID(r)
	if err != nil {
		return Actor{}, err
	}
	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}
	actor := Actor{UserID: userID, Role: role}
	if raw := middleware.VendorIDFromContext(r.Context()); raw != "" {
		vendorID, err := uuid.Parse(raw)
		if err != nil {
			return Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id")
		}
		actor.VendorID = &vendorID
	}
	return actor, nil
}
