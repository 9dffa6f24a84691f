package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hamlet-coop/hamlet-backend/api/responses"
	"github.com/hamlet-coop/hamlet-backend/internal/catalog"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
)

// VillageList returns every village, for houses browsing where trips go.
func VillageList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		villages, err := svc.ListVillages(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, villages)
	}
}

// StoreList returns stores, optionally filtered by a village_id query param.
func StoreList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("village_id")); raw != "" {
			villageID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid village id"))
				return
			}
			stores, err := svc.ListStoresByVillage(r.Context(), villageID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, stores)
			return
		}

		stores, err := svc.ListStores(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stores)
	}
}

// StoreGet returns a single store by id.
func StoreGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuidParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.GetStore(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}
