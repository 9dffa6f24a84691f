package requests

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StoreDirectory resolves catalog stores for matching and validation.
type StoreDirectory interface {
	FindStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// TripDirectory resolves trips for the claim bridge.
type TripDirectory interface {
	FindTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error)
}

// Service owns the request lifecycle: open on create, claimed by exactly
// one trip, then fulfilled or cancelled.
type Service interface {
	Create(ctx context.Context, input CreateRequestInput) (*models.RequestItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.RequestItem, error)
	ListForHouse(ctx context.Context, houseID uuid.UUID) ([]models.RequestItem, error)
	ListRecentOpen(ctx context.Context, limit int) ([]models.RequestItem, error)
	Cancel(ctx context.Context, requestID, actingHouseID uuid.UUID) (*models.RequestItem, error)
	MatchCandidates(ctx context.Context, tripID uuid.UUID) ([]models.RequestItem, error)
	Claim(ctx context.Context, input ClaimInput) (int, error)
}

type service struct {
	repo    Repository
	stores  StoreDirectory
	trips   TripDirectory
	metrics *metrics.ErrandMetrics
}

const defaultRecentLimit = 10

// CreateRequestInput captures a new ask against a single store.
type CreateRequestInput struct {
	HouseID    uuid.UUID
	StoreID    uuid.UUID
	ItemName   string
	Quantity   int
	PriceLimit *decimal.Decimal
	Notes      *string
}

// ClaimInput is the best-effort batch attaching open requests to a trip.
type ClaimInput struct {
	TripID        uuid.UUID
	ActingHouseID uuid.UUID
	RequestIDs    []uuid.UUID
}

// NewService wires a request service with its dependencies.
func NewService(repo Repository, stores StoreDirectory, trips TripDirectory, errandMetrics *metrics.ErrandMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store directory required")
	}
	if trips == nil {
		return nil, fmt.Errorf("trip directory required")
	}
	return &service{
		repo:    repo,
		stores:  stores,
		trips:   trips,
		metrics: errandMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateRequestInput) (*models.RequestItem, error) {
	if input.HouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	itemName := strings.TrimSpace(input.ItemName)
	if itemName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.PriceLimit != nil && input.PriceLimit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price limit cannot be negative")
	}

	if _, err := s.stores.FindStore(ctx, input.StoreID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	request := &models.RequestItem{
		ID:         uuid.New(),
		HouseID:    input.HouseID,
		StoreID:    input.StoreID,
		ItemName:   itemName,
		Quantity:   input.Quantity,
		PriceLimit: input.PriceLimit,
		Notes:      input.Notes,
		Status:     enums.RequestStatusOpen,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
	}
	s.metrics.IncRequestCreated()
	return request, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.RequestItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	return request, nil
}

func (s *service) ListForHouse(ctx context.Context, houseID uuid.UUID) ([]models.RequestItem, error) {
	if houseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	requests, err := s.repo.ListByHouse(ctx, houseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list house requests")
	}
	return requests, nil
}

func (s *service) ListRecentOpen(ctx context.Context, limit int) ([]models.RequestItem, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	requests, err := s.repo.ListRecentOpen(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open requests")
	}
	return requests, nil
}

func (s *service) Cancel(ctx context.Context, requestID, actingHouseID uuid.UUID) (*models.RequestItem, error) {
	if actingHouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "house identity missing")
	}
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.HouseID != actingHouseID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to house")
	}
	if request.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot cancel a %s request", request.Status))
	}

	cancelled, err := s.repo.CancelActive(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel request")
	}
	if !cancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request is no longer cancellable")
	}
	request.Status = enums.RequestStatusCancelled
	s.metrics.IncRequestCancelled()
	return request, nil
}

// MatchCandidates lists the open requests a trip could claim, oldest
// first. A village with no stores simply yields an empty list.
func (s *service) MatchCandidates(ctx context.Context, tripID uuid.UUID) ([]models.RequestItem, error) {
	trip, err := s.findTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.repo.ListOpenForTrip(ctx, trip.VillageID, trip.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list candidate requests")
	}
	return candidates, nil
}

// Claim attaches open requests to a trip. Ids that are missing, no longer
// open, or outside the trip's store/village context are skipped without
// error; the returned count is the number actually claimed.
func (s *service) Claim(ctx context.Context, input ClaimInput) (int, error) {
	if input.ActingHouseID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "house identity missing")
	}
	trip, err := s.findTrip(ctx, input.TripID)
	if err != nil {
		return 0, err
	}
	if trip.HouseID != input.ActingHouseID {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "trip does not belong to house")
	}
	if trip.Status == enums.TripStatusCompleted {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "trip already completed")
	}

	claimed := 0
	villageByStore := map[uuid.UUID]uuid.UUID{}
	for _, requestID := range input.RequestIDs {
		request, err := s.repo.FindByID(ctx, requestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return claimed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
		}
		if request.Status != enums.RequestStatusOpen {
			continue
		}
		matches, err := s.tripMatches(ctx, trip, request, villageByStore)
		if err != nil {
			return claimed, err
		}
		if !matches {
			continue
		}
		won, err := s.repo.ClaimOpen(ctx, requestID, trip.ID)
		if err != nil {
			return claimed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim request")
		}
		if won {
			claimed++
		}
	}
	s.metrics.AddRequestsClaimed(claimed)
	return claimed, nil
}

// tripMatches re-checks the store/village predicate at claim time so stale
// candidate selections cannot attach out-of-context requests.
func (s *service) tripMatches(ctx context.Context, trip *models.Trip, request *models.RequestItem, villageByStore map[uuid.UUID]uuid.UUID) (bool, error) {
	if trip.StoreID != nil {
		return request.StoreID == *trip.StoreID, nil
	}
	villageID, ok := villageByStore[request.StoreID]
	if !ok {
		store, err := s.stores.FindStore(ctx, request.StoreID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, nil
			}
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request store")
		}
		villageID = store.VillageID
		villageByStore[request.StoreID] = villageID
	}
	return villageID == trip.VillageID, nil
}

func (s *service) findTrip(ctx context.Context, tripID uuid.UUID) (*models.Trip, error) {
	if tripID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}
	trip, err := s.trips.FindTrip(ctx, tripID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trip not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trip")
	}
	return trip, nil
}
