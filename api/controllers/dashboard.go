package controllers

import (
	"net/http"

	"github.com/hamlet-coop/hamlet-backend/api/responses"
	"github.com/hamlet-coop/hamlet-backend/internal/dashboard"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
)

// DashboardOverview returns the composite landing view: open requests,
// upcoming trips, recent deliveries and ledger activity, and the balance
// matrix in one payload.
func DashboardOverview(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		overview, err := svc.Overview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}
