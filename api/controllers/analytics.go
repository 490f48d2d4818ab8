package controllers

import (
	"net/http"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/internal/analytics"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

func DashboardStats(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "analytics service")
			return
		}
		ownerID, ok := ownerFrom(w, r, logg)
		if !ok {
			return
		}
		stats, err := svc.DashboardStats(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
