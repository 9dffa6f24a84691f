package trips

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTripRepo struct {
	trips map[uuid.UUID]*models.Trip
	order []uuid.UUID
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: map[uuid.UUID]*models.Trip{}}
}

func (f *fakeTripRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeTripRepo) Create(ctx context.Context, trip *models.Trip) error {
	trip.ID = uuid.New()
	f.trips[trip.ID] = trip
	f.order = append(f.order, trip.ID)
	return nil
}

func (f *fakeTripRepo) FindTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	trip, ok := f.trips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *trip
	return &clone, nil
}

func (f *fakeTripRepo) ListByHouse(ctx context.Context, houseID uuid.UUID) ([]models.Trip, error) {
	var out []models.Trip
	for _, id := range f.order {
		if f.trips[id].HouseID == houseID {
			out = append(out, *f.trips[id])
		}
	}
	return out, nil
}

func (f *fakeTripRepo) ListPlanned(ctx context.Context) ([]models.Trip, error) {
	var out []models.Trip
	for _, id := range f.order {
		if f.trips[id].Status == enums.TripStatusPlanned {
			out = append(out, *f.trips[id])
		}
	}
	return out, nil
}

func (f *fakeTripRepo) CompletePlanned(ctx context.Context, id uuid.UUID) (bool, error) {
	trip, ok := f.trips[id]
	if !ok || trip.Status != enums.TripStatusPlanned {
		return false, nil
	}
	trip.Status = enums.TripStatusCompleted
	return true, nil
}

type fakeVillages struct {
	villages map[uuid.UUID]*models.Village
}

func (f *fakeVillages) FindVillage(ctx context.Context, id uuid.UUID) (*models.Village, error) {
	village, ok := f.villages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return village, nil
}

type fakeStores struct {
	stores map[uuid.UUID]*models.Store
}

func (f *fakeStores) FindStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, ok := f.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return store, nil
}

type tripsFixture struct {
	svc      Service
	repo     *fakeTripRepo
	villages *fakeVillages
	stores   *fakeStores
}

func newTripsFixture(t *testing.T) *tripsFixture {
	t.Helper()

	repo := newFakeTripRepo()
	villages := &fakeVillages{villages: map[uuid.UUID]*models.Village{}}
	stores := &fakeStores{stores: map[uuid.UUID]*models.Store{}}
	svc, err := NewService(repo, villages, stores)
	require.NoError(t, err)
	return &tripsFixture{svc: svc, repo: repo, villages: villages, stores: stores}
}

func (fx *tripsFixture) addVillage() *models.Village {
	village := &models.Village{ID: uuid.New(), Name: "Eastwick"}
	fx.villages.villages[village.ID] = village
	return village
}

func (fx *tripsFixture) addStore(villageID uuid.UUID) *models.Store {
	store := &models.Store{ID: uuid.New(), Name: "Mill Road Grocer", VillageID: villageID}
	fx.stores.stores[store.ID] = store
	return store
}

func TestService_CreateValidatesStoreVillage(t *testing.T) {
	fx := newTripsFixture(t)
	village := fx.addVillage()
	otherVillage := fx.addVillage()
	store := fx.addStore(otherVillage.ID)

	_, err := fx.svc.Create(context.Background(), CreateTripInput{
		HouseID:   uuid.New(),
		VillageID: village.ID,
		StoreID:   &store.ID,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestService_CreatePlannedTrip(t *testing.T) {
	fx := newTripsFixture(t)
	village := fx.addVillage()
	store := fx.addStore(village.ID)

	trip, err := fx.svc.Create(context.Background(), CreateTripInput{
		HouseID:   uuid.New(),
		VillageID: village.ID,
		StoreID:   &store.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TripStatusPlanned, trip.Status)
	require.NotNil(t, trip.StoreID)
	assert.Equal(t, store.ID, *trip.StoreID)
}

func TestService_CreateUnknownVillage(t *testing.T) {
	fx := newTripsFixture(t)

	_, err := fx.svc.Create(context.Background(), CreateTripInput{
		HouseID:   uuid.New(),
		VillageID: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestService_CompleteOwnerOnly(t *testing.T) {
	fx := newTripsFixture(t)
	village := fx.addVillage()
	planner := uuid.New()

	trip, err := fx.svc.Create(context.Background(), CreateTripInput{
		HouseID:   planner,
		VillageID: village.ID,
	})
	require.NoError(t, err)

	_, err = fx.svc.Complete(context.Background(), trip.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	updated, err := fx.svc.Complete(context.Background(), trip.ID, planner)
	require.NoError(t, err)
	assert.Equal(t, enums.TripStatusCompleted, updated.Status)

	// Completing again is a no-op, not an error.
	again, err := fx.svc.Complete(context.Background(), trip.ID, planner)
	require.NoError(t, err)
	assert.Equal(t, enums.TripStatusCompleted, again.Status)
}

func TestService_ListUpcomingDepartureOrdering(t *testing.T) {
	fx := newTripsFixture(t)
	village := fx.addVillage()
	houseID := uuid.New()

	now := time.Now().UTC()
	later := now.Add(4 * time.Hour)
	soon := now.Add(time.Hour)

	mk := func(departure *time.Time) *models.Trip {
		trip, err := fx.svc.Create(context.Background(), CreateTripInput{
			HouseID:       houseID,
			VillageID:     village.ID,
			DepartureTime: departure,
		})
		require.NoError(t, err)
		return trip
	}

	untimedFirst := mk(nil)
	timedLater := mk(&later)
	untimedSecond := mk(nil)
	timedSoon := mk(&soon)

	list, err := fx.svc.ListUpcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 4)

	// Timed trips first by departure, untimed after in creation order.
	assert.Equal(t, timedSoon.ID, list[0].ID)
	assert.Equal(t, timedLater.ID, list[1].ID)
	assert.Equal(t, untimedFirst.ID, list[2].ID)
	assert.Equal(t, untimedSecond.ID, list[3].ID)
}
