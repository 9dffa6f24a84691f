package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hamlet-coop/hamlet-backend/api/middleware"
	"github.com/hamlet-coop/hamlet-backend/internal/requests"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
)

type stubRequestService struct {
	created    *models.RequestItem
	createErr  error
	got        *models.RequestItem
	getErr     error
	list       []models.RequestItem
	listErr    error
	cancelled  *models.RequestItem
	cancelErr  error
	candidates []models.RequestItem
	matchErr   error
	claimed    int
	claimErr   error

	lastCreate requests.CreateRequestInput
	lastClaim  requests.ClaimInput
}

func (s *stubRequestService) Create(_ context.Context, input requests.CreateRequestInput) (*models.RequestItem, error) {
	s.lastCreate = input
	return s.created, s.createErr
}

func (s *stubRequestService) Get(_ context.Context, _ uuid.UUID) (*models.RequestItem, error) {
	return s.got, s.getErr
}

func (s *stubRequestService) ListForHouse(_ context.Context, _ uuid.UUID) ([]models.RequestItem, error) {
	return s.list, s.listErr
}

func (s *stubRequestService) ListRecentOpen(_ context.Context, _ int) ([]models.RequestItem, error) {
	return s.list, s.listErr
}

func (s *stubRequestService) Cancel(_ context.Context, _, _ uuid.UUID) (*models.RequestItem, error) {
	return s.cancelled, s.cancelErr
}

func (s *stubRequestService) MatchCandidates(_ context.Context, _ uuid.UUID) ([]models.RequestItem, error) {
	return s.candidates, s.matchErr
}

func (s *stubRequestService) Claim(_ context.Context, input requests.ClaimInput) (int, error) {
	s.lastClaim = input
	return s.claimed, s.claimErr
}

func withHouse(req *http.Request, houseID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithHouseID(req.Context(), houseID.String()))
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestRequestCreateSuccess(t *testing.T) {
	houseID := uuid.New()
	storeID := uuid.New()
	svc := &stubRequestService{created: &models.RequestItem{
		ID:       uuid.New(),
		HouseID:  houseID,
		StoreID:  storeID,
		ItemName: "oat milk",
		Quantity: 2,
		Status:   enums.RequestStatusOpen,
	}}
	handler := RequestCreate(svc, nil)

	payload := []byte(`{"store_id":"` + storeID.String() + `","item_name":"oat milk","quantity":2,"price_limit":"4.50"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withHouse(req, houseID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastCreate.HouseID != houseID {
		t.Fatalf("expected house %s got %s", houseID, svc.lastCreate.HouseID)
	}
	if svc.lastCreate.PriceLimit == nil || svc.lastCreate.PriceLimit.String() != "4.5" {
		t.Fatalf("unexpected price limit %v", svc.lastCreate.PriceLimit)
	}

	var envelope struct {
		Data models.RequestItem `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ItemName != "oat milk" {
		t.Fatalf("unexpected item name %s", envelope.Data.ItemName)
	}
}

func TestRequestCreateMissingHouseContext(t *testing.T) {
	handler := RequestCreate(&stubRequestService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestRequestCreateInvalidPriceLimit(t *testing.T) {
	handler := RequestCreate(&stubRequestService{}, nil)

	payload := []byte(`{"store_id":"` + uuid.NewString() + `","item_name":"jam","quantity":1,"price_limit":"cheap"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withHouse(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRequestCreateUnknownFieldRejected(t *testing.T) {
	handler := RequestCreate(&stubRequestService{}, nil)

	payload := []byte(`{"store_id":"` + uuid.NewString() + `","item_name":"jam","quantity":1,"surprise":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withHouse(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field got %d", rec.Code)
	}
}

func TestRequestGetInvalidID(t *testing.T) {
	handler := RequestGet(&stubRequestService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/not-a-uuid", nil)
	req = withRouteParam(req, "requestId", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRequestCancelForbidden(t *testing.T) {
	svc := &stubRequestService{cancelErr: pkgerrors.New(pkgerrors.CodeForbidden, "only the requesting house may cancel")}
	handler := RequestCancel(svc, nil)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+id+"/cancel", nil)
	req = withHouse(req, uuid.New())
	req = withRouteParam(req, "requestId", id)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestRequestCancelStateConflict(t *testing.T) {
	svc := &stubRequestService{cancelErr: pkgerrors.New(pkgerrors.CodeStateConflict, "request is no longer cancellable")}
	handler := RequestCancel(svc, nil)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+id+"/cancel", nil)
	req = withHouse(req, uuid.New())
	req = withRouteParam(req, "requestId", id)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestRequestListSuccess(t *testing.T) {
	houseID := uuid.New()
	svc := &stubRequestService{list: []models.RequestItem{
		{ID: uuid.New(), HouseID: houseID, ItemName: "flour", Quantity: 1, Status: enums.RequestStatusOpen},
		{ID: uuid.New(), HouseID: houseID, ItemName: "eggs", Quantity: 12, Status: enums.RequestStatusFulfilled},
	}}
	handler := RequestList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
	req = withHouse(req, houseID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data []models.RequestItem `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 requests got %d", len(envelope.Data))
	}
}
