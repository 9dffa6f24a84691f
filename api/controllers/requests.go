package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hamlet-coop/hamlet-backend/api/responses"
	"github.com/hamlet-coop/hamlet-backend/api/validators"
	"github.com/hamlet-coop/hamlet-backend/internal/requests"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
)

type createRequestPayload struct {
	StoreID    string  `json:"store_id" validate:"required,uuid"`
	ItemName   string  `json:"item_name" validate:"required"`
	Quantity   int     `json:"quantity" validate:"required,min=1"`
	PriceLimit *string `json:"price_limit,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

func (p createRequestPayload) toInput(houseID uuid.UUID) (requests.CreateRequestInput, error) {
	storeID, err := uuid.Parse(p.StoreID)
	if err != nil {
		return requests.CreateRequestInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id")
	}

	input := requests.CreateRequestInput{
		HouseID:  houseID,
		StoreID:  storeID,
		ItemName: p.ItemName,
		Quantity: p.Quantity,
		Notes:    p.Notes,
	}

	if p.PriceLimit != nil {
		limit, err := decimal.NewFromString(strings.TrimSpace(*p.PriceLimit))
		if err != nil {
			return requests.CreateRequestInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price limit")
		}
		input.PriceLimit = &limit
	}

	return input, nil
}

// RequestCreate opens a new request item for the authenticated house.
func RequestCreate(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload createRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// RequestList returns the authenticated house's own requests.
func RequestList(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
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

		items, err := svc.ListForHouse(r.Context(), houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// RequestGet returns a single request item by id.
func RequestGet(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		id, err := uuidParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

// RequestCancel cancels an open or claimed request owned by the caller.
func RequestCancel(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
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

		id, err := uuidParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Cancel(r.Context(), id, houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}
