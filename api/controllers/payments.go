package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hamlet-coop/hamlet-backend/api/responses"
	"github.com/hamlet-coop/hamlet-backend/api/validators"
	"github.com/hamlet-coop/hamlet-backend/internal/balances"
	"github.com/hamlet-coop/hamlet-backend/internal/ledger"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
	"github.com/hamlet-coop/hamlet-backend/pkg/metrics"
)

// balanceInvalidator drops the cached balance snapshot after a write that
// changes the ledger.
type balanceInvalidator interface {
	Invalidate(ctx context.Context)
}

type recordPaymentPayload struct {
	ToHouseID   string  `json:"to_house_id" validate:"required,uuid"`
	Amount      string  `json:"amount" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// PaymentRecord appends a settlement from the authenticated house to
// another house.
func PaymentRecord(svc ledger.Service, bal balanceInvalidator, errandMetrics *metrics.ErrandMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		houseID, err := houseFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordPaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		toHouseID, err := uuid.Parse(payload.ToHouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid house id"))
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		entry, err := svc.AppendPayment(r.Context(), ledger.AppendPaymentInput{
			FromHouseID: houseID,
			ToHouseID:   toHouseID,
			Amount:      amount,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		errandMetrics.IncPaymentRecorded()
		if bal != nil {
			bal.Invalidate(r.Context())
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// LedgerListMine returns every ledger entry involving the caller's house.
func LedgerListMine(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		houseID, err := houseFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListEntriesForHouse(r.Context(), houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entries)
	}
}

// BalancesList returns the directional balances across all houses.
func BalancesList(svc balances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balance service unavailable"))
			return
		}

		all, err := svc.Balances(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, all)
	}
}

// BalancesMine returns only the balances involving the caller's house.
func BalancesMine(svc balances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balance service unavailable"))
			return
		}

		houseID, err := houseFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mine, err := svc.BalancesForHouse(r.Context(), houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, mine)
	}
}
