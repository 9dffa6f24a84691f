package controllers

import (
	"net/http"

	"github.com/hamlet-coop/hamlet-backend/api/responses"
	"github.com/hamlet-coop/hamlet-backend/api/validators"
	"github.com/hamlet-coop/hamlet-backend/internal/auth"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
)

type houseLoginRequest struct {
	HouseName string `json:"house_name" validate:"required"`
	JoinCode  string `json:"join_code" validate:"required"`
}

type houseLoginResponse struct {
	AccessToken string `json:"access_token"`
	HouseID     string `json:"house_id"`
	HouseName   string `json:"house_name"`
}

// AuthLoginHouse exchanges a house name and join code for an access token.
func AuthLoginHouse(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body houseLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, house, err := svc.LoginHouse(r.Context(), body.HouseName, body.JoinCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, houseLoginResponse{
			AccessToken: token,
			HouseID:     house.ID.String(),
			HouseName:   house.Name,
		})
	}
}

type adminLoginRequest struct {
	PIN string `json:"pin" validate:"required"`
}

type adminLoginResponse struct {
	AccessToken string `json:"access_token"`
}

// AuthLoginAdmin exchanges the shared admin PIN for an admin token.
func AuthLoginAdmin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body adminLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := svc.LoginAdmin(r.Context(), body.PIN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, adminLoginResponse{AccessToken: token})
	}
}
