package trips

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"gorm.io/gorm"
)

// VillageDirectory resolves catalog villages for trip validation.
type VillageDirectory interface {
	FindVillage(ctx context.Context, id uuid.UUID) (*models.Village, error)
}

// StoreDirectory resolves catalog stores for trip validation.
type StoreDirectory interface {
	FindStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service owns the trip lifecycle: planned on creation, completed once the
// traveling house closes it out. Completed is terminal.
type Service interface {
	Create(ctx context.Context, input CreateTripInput) (*models.Trip, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	FindTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	ListForHouse(ctx context.Context, houseID uuid.UUID) ([]models.Trip, error)
	ListUpcoming(ctx context.Context) ([]models.Trip, error)
	Complete(ctx context.Context, tripID, actingHouseID uuid.UUID) (*models.Trip, error)
}

type service struct {
	repo     Repository
	villages VillageDirectory
	stores   StoreDirectory
}

// CreateTripInput captures a planned shopping visit. StoreID is optional:
// nil means any store in the village.
type CreateTripInput struct {
	HouseID       uuid.UUID
	VillageID     uuid.UUID
	StoreID       *uuid.UUID
	DepartureTime *time.Time
	Notes         *string
}

// NewService wires a trip service with its dependencies.
func NewService(repo Repository, villages VillageDirectory, stores StoreDirectory) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("trips repository required")
	}
	if villages == nil {
		return nil, fmt.Errorf("village directory required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store directory required")
	}
	return &service{repo: repo, villages: villages, stores: stores}, nil
}

func (s *service) Create(ctx context.Context, input CreateTripInput) (*models.Trip, error) {
	if input.HouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	if input.VillageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "village id required")
	}

	if _, err := s.villages.FindVillage(ctx, input.VillageID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "village not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load village")
	}

	if input.StoreID != nil {
		store, err := s.stores.FindStore(ctx, *input.StoreID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
		}
		if store.VillageID != input.VillageID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store does not belong to village")
		}
	}

	trip := &models.Trip{
		ID:            uuid.New(),
		HouseID:       input.HouseID,
		VillageID:     input.VillageID,
		StoreID:       input.StoreID,
		DepartureTime: input.DepartureTime,
		Notes:         input.Notes,
		Status:        enums.TripStatusPlanned,
	}
	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trip")
	}
	return trip, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}
	trip, err := s.repo.FindTrip(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trip not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trip")
	}
	return trip, nil
}

// FindTrip exposes raw repository lookups for collaborating services.
func (s *service) FindTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	return s.repo.FindTrip(ctx, id)
}

func (s *service) ListForHouse(ctx context.Context, houseID uuid.UUID) ([]models.Trip, error) {
	if houseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	trips, err := s.repo.ListByHouse(ctx, houseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list house trips")
	}
	sortByDeparture(trips)
	return trips, nil
}

// ListUpcoming returns every planned trip, soonest departure first. Trips
// without a departure time sort after all timed trips, keeping their
// creation order among themselves.
func (s *service) ListUpcoming(ctx context.Context) ([]models.Trip, error) {
	trips, err := s.repo.ListPlanned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list planned trips")
	}
	sortByDeparture(trips)
	return trips, nil
}

func (s *service) Complete(ctx context.Context, tripID, actingHouseID uuid.UUID) (*models.Trip, error) {
	if actingHouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "house identity missing")
	}
	trip, err := s.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.HouseID != actingHouseID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "trip does not belong to house")
	}
	if trip.Status == enums.TripStatusCompleted {
		return trip, nil
	}

	done, err := s.repo.CompletePlanned(ctx, tripID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete trip")
	}
	if !done {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "trip is not in a completable state")
	}
	trip.Status = enums.TripStatusCompleted
	return trip, nil
}

func sortByDeparture(trips []models.Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		a, b := trips[i].DepartureTime, trips[j].DepartureTime
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
