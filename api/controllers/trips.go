package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hamlet-coop/hamlet-backend/api/responses"
	"github.com/hamlet-coop/hamlet-backend/api/validators"
	"github.com/hamlet-coop/hamlet-backend/internal/deliveries"
	"github.com/hamlet-coop/hamlet-backend/internal/requests"
	"github.com/hamlet-coop/hamlet-backend/internal/trips"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
)

type createTripPayload struct {
	VillageID     string     `json:"village_id" validate:"required,uuid"`
	StoreID       *string    `json:"store_id,omitempty" validate:"omitempty,uuid"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

func (p createTripPayload) toInput(houseID uuid.UUID) (trips.CreateTripInput, error) {
	villageID, err := uuid.Parse(p.VillageID)
	if err != nil {
		return trips.CreateTripInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid village id")
	}

	input := trips.CreateTripInput{
		HouseID:       houseID,
		VillageID:     villageID,
		DepartureTime: p.DepartureTime,
		Notes:         p.Notes,
	}

	if p.StoreID != nil {
		storeID, err := uuid.Parse(*p.StoreID)
		if err != nil {
			return trips.CreateTripInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id")
		}
		input.StoreID = &storeID
	}

	return input, nil
}

// TripCreate plans a new shopping trip for the authenticated house.
func TripCreate(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trip service unavailable"))
			return
		}

		houseID, err := houseFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createTripPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		trip, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, trip)
	}
}

// TripListUpcoming returns all planned trips across houses, soonest first.
func TripListUpcoming(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trip service unavailable"))
			return
		}

		planned, err := svc.ListUpcoming(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, planned)
	}
}

// TripListMine returns the authenticated house's trips.
func TripListMine(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trip service unavailable"))
			return
		}

		houseID, err := houseFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mine, err := svc.ListForHouse(r.Context(), houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, mine)
	}
}

// TripGet returns a single trip by id.
func TripGet(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trip service unavailable"))
			return
		}

		id, err := uuidParam(r, "tripId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		trip, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, trip)
	}
}

// TripComplete marks the caller's trip as completed.
func TripComplete(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trip service unavailable"))
			return
		}

		houseID, err := houseFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuidParam(r, "tripId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		trip, err := svc.Complete(r.Context(), id, houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, trip)
	}
}

// TripMatchCandidates lists open requests a trip could pick up, based on
// the trip's village and optional pinned store.
func TripMatchCandidates(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		id, err := uuidParam(r, "tripId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		candidates, err := svc.MatchCandidates(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, candidates)
	}
}

type claimPayload struct {
	RequestIDs []string `json:"request_ids" validate:"required,min=1,dive,uuid"`
}

type claimResponse struct {
	Claimed int `json:"claimed"`
}

// TripClaim attaches a batch of open requests to the caller's trip.
// Requests that are already claimed, cancelled, or do not match the trip
// are skipped without failing the batch.
func TripClaim(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		houseID, err := houseFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tripID, err := uuidParam(r, "tripId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload claimPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids := make([]uuid.UUID, 0, len(payload.RequestIDs))
		for _, raw := range payload.RequestIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
				return
			}
			ids = append(ids, id)
		}

		claimed, err := svc.Claim(r.Context(), requests.ClaimInput{
			TripID:        tripID,
			ActingHouseID: houseID,
			RequestIDs:    ids,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, claimResponse{Claimed: claimed})
	}
}

type deliverPayload struct {
	// Items maps request ids to the unit price actually paid at the store.
	Items map[string]string `json:"items" validate:"required,min=1"`
}

type deliverResponse struct {
	Delivered int `json:"delivered"`
}

// TripDeliver records deliveries for claimed requests on the caller's trip,
// charging each receiving house in the ledger.
func TripDeliver(svc deliveries.Service, balances balanceInvalidator, logg *logger.Logger) http.HandlerFunc {
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

		tripID, err := uuidParam(r, "tripId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliverPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prices := make(map[uuid.UUID]decimal.Decimal, len(payload.Items))
		for rawID, rawPrice := range payload.Items {
			id, err := uuid.Parse(rawID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
				return
			}
			price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price"))
				return
			}
			prices[id] = price
		}

		delivered, err := svc.Deliver(r.Context(), deliveries.DeliverInput{
			TripID:        tripID,
			ActingHouseID: houseID,
			UnitPrices:    prices,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if delivered > 0 && balances != nil {
			balances.Invalidate(r.Context())
		}

		responses.WriteSuccess(w, deliverResponse{Delivered: delivered})
	}
}

// TripDeliveries lists the deliveries recorded against a trip.
func TripDeliveries(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		tripID, err := uuidParam(r, "tripId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByTrip(r.Context(), tripID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
