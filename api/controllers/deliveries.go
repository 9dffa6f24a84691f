package controllers

import (
	"net/http"

	"github.com/hamlet-coop/hamlet-backend/api/responses"
	"github.com/hamlet-coop/hamlet-backend/internal/deliveries"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
)

// DeliveryListMine returns deliveries received by the caller's house.
func DeliveryListMine(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		houseID, err := houseFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForHouse(r.Context(), houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
