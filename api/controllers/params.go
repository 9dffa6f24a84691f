package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hamlet-coop/hamlet-backend/api/middleware"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
)

// uuidParam extracts and parses a uuid path parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

// houseFromContext returns the authenticated house id seeded by the auth
// middleware.
func houseFromContext(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.HouseIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "house context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid house id")
	}
	return id, nil
}
