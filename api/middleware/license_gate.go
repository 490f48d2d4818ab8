package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

// InventoryAccessChecker decides whether an account may use inventory features.
type InventoryAccessChecker interface {
	CheckInventoryAccess(ctx context.Context, userID uuid.UUID) error
}

// LicenseGate rejects requests from accounts without a valid, inventory-enabled
// license. It must run after Auth.
func LicenseGate(checker InventoryAccessChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID, ok := OwnerIDFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgNoCredentials))
				return
			}
			if checker == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license checker unavailable"))
				return
			}
			if err := checker.CheckInventoryAccess(r.Context(), ownerID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
