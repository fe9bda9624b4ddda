package middleware

import (
	"net/http"
	"strings"

	"github.com/risbow/risbow-backend/api/responses"
	pkgAuth "github.com/risbow/risbow-backend/pkg/auth"
	"github.com/risbow/risbow-backend/pkg/config"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
)

const bearerScheme = "bearer"

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth verifies the bearer token and seeds the request context with the
// actor: user id, role and, for vendors, the vendor id.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required"))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID, role := claims.UserID.String(), string(claims.Role)
			ctx := WithRole(WithUserID(r.Context(), userID), role)
			if logg != nil {
				ctx = logg.WithActorRole(logg.WithUserID(ctx, userID), role)
			}
			if claims.VendorID != nil {
				vendorID := claims.VendorID.String()
				ctx = WithVendorID(ctx, vendorID)
				if logg != nil {
					ctx = logg.WithVendorID(ctx, vendorID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
