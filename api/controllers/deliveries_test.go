package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/hamlet-coop/hamlet-backend/internal/deliveries"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
)

type stubDeliveryService struct {
	delivered  int
	deliverErr error
	byTrip     []models.Delivery
	forHouse   []models.Delivery

	lastDeliver deliveries.DeliverInput
}

func (s *stubDeliveryService) Deliver(_ context.Context, input deliveries.DeliverInput) (int, error) {
	s.lastDeliver = input
	return s.delivered, s.deliverErr
}

func (s *stubDeliveryService) ListByTrip(_ context.Context, _ uuid.UUID) ([]models.Delivery, error) {
	return s.byTrip, nil
}

func (s *stubDeliveryService) ListForHouse(_ context.Context, _ uuid.UUID) ([]models.Delivery, error) {
	return s.forHouse, nil
}

func (s *stubDeliveryService) RecentRows(_ context.Context, _ int) ([]deliveries.Row, error) {
	return nil, nil
}

type spyInvalidator struct {
	calls int
}

func (s *spyInvalidator) Invalidate(_ context.Context) { s.calls++ }

func TestTripDeliverSuccess(t *testing.T) {
	houseID := uuid.New()
	tripID := uuid.New()
	requestID := uuid.New()
	svc := &stubDeliveryService{delivered: 1}
	spy := &spyInvalidator{}
	handler := TripDeliver(svc, spy, nil)

	payload := []byte(`{"items":{"` + requestID.String() + `":"3.25"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips/"+tripID.String()+"/deliver", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withHouse(req, houseID)
	req = withRouteParam(req, "tripId", tripID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	price, ok := svc.lastDeliver.UnitPrices[requestID]
	if !ok {
		t.Fatalf("expected price for request %s", requestID)
	}
	if price.String() != "3.25" {
		t.Fatalf("unexpected price %s", price)
	}
	if spy.calls != 1 {
		t.Fatalf("expected one cache invalidation got %d", spy.calls)
	}

	var envelope struct {
		Data deliverResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Delivered != 1 {
		t.Fatalf("expected 1 delivered got %d", envelope.Data.Delivered)
	}
}

func TestTripDeliverNothingDeliveredSkipsInvalidation(t *testing.T) {
	svc := &stubDeliveryService{delivered: 0}
	spy := &spyInvalidator{}
	handler := TripDeliver(svc, spy, nil)

	tripID := uuid.NewString()
	payload := []byte(`{"items":{"` + uuid.NewString() + `":"2.00"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips/"+tripID+"/deliver", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withHouse(req, uuid.New())
	req = withRouteParam(req, "tripId", tripID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if spy.calls != 0 {
		t.Fatalf("expected no invalidation got %d", spy.calls)
	}
}

func TestTripDeliverUnparseablePrice(t *testing.T) {
	handler := TripDeliver(&stubDeliveryService{}, nil, nil)

	tripID := uuid.NewString()
	payload := []byte(`{"items":{"` + uuid.NewString() + `":"three euros"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips/"+tripID+"/deliver", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withHouse(req, uuid.New())
	req = withRouteParam(req, "tripId", tripID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestTripDeliverForbidden(t *testing.T) {
	svc := &stubDeliveryService{deliverErr: pkgerrors.New(pkgerrors.CodeForbidden, "only the traveling house may deliver")}
	handler := TripDeliver(svc, nil, nil)

	tripID := uuid.NewString()
	payload := []byte(`{"items":{"` + uuid.NewString() + `":"2.00"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips/"+tripID+"/deliver", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withHouse(req, uuid.New())
	req = withRouteParam(req, "tripId", tripID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestDeliveryListMine(t *testing.T) {
	houseID := uuid.New()
	svc := &stubDeliveryService{forHouse: []models.Delivery{{ID: uuid.New()}, {ID: uuid.New()}}}
	handler := DeliveryListMine(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/deliveries", nil)
	req = withHouse(req, houseID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data []models.Delivery `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 deliveries got %d", len(envelope.Data))
	}
}
