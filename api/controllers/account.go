package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/licenses"
	"github.com/angelmondragon/stockroom-backend/internal/users"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

// AccountLookup loads the authenticated account.
type AccountLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type meResponse struct {
	*users.UserDTO
	License *licenses.LicenseSummary `json:"license"`
}

type activateRequest struct {
	Key string `json:"key"`
}

// Me returns the authenticated account with its license, if any.
func Me(accounts AccountLookup, svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if accounts == nil || svc == nil {
			unavailable(w, r, logg, "account service")
			return
		}
		ownerID, ok := ownerFrom(w, r, logg)
		if !ok {
			return
		}

		user, err := accounts.FindByID(r.Context(), ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup account"))
			return
		}

		license, err := svc.ForOwner(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, meResponse{
			UserDTO: users.FromModel(user),
			License: licenses.Summarize(license, time.Now().UTC()),
		})
	}
}

// Activate binds a license key to the authenticated account.
func Activate(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "license service")
			return
		}
		ownerID, ok := ownerFrom(w, r, logg)
		if !ok {
			return
		}

		var body activateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Activate(r.Context(), ownerID, body.Key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
