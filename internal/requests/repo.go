package requests

import (
	"context"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for request items. The conditional update
// methods return whether the row actually transitioned so callers can
// distinguish "won the race" from "someone else got there first".
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.RequestItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RequestItem, error)
	ListByHouse(ctx context.Context, houseID uuid.UUID) ([]models.RequestItem, error)
	ListRecentOpen(ctx context.Context, limit int) ([]models.RequestItem, error)
	ListOpenForTrip(ctx context.Context, villageID uuid.UUID, storeID *uuid.UUID) ([]models.RequestItem, error)
	ListClaimedByTrip(ctx context.Context, tripID uuid.UUID) ([]models.RequestItem, error)
	ClaimOpen(ctx context.Context, id, tripID uuid.UUID) (bool, error)
	CancelActive(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFulfilled(ctx context.Context, id, tripID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a request repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.RequestItem) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RequestItem, error) {
	var request models.RequestItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByHouse(ctx context.Context, houseID uuid.UUID) ([]models.RequestItem, error) {
	var requests []models.RequestItem
	if err := r.db.WithContext(ctx).
		Where("house_id = ?", houseID).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListRecentOpen(ctx context.Context, limit int) ([]models.RequestItem, error) {
	var requests []models.RequestItem
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.RequestStatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListOpenForTrip returns open requests the trip context can satisfy:
// pinned trips match only their store, unpinned trips match every store
// in the trip's village. Oldest first.
func (r *repository) ListOpenForTrip(ctx context.Context, villageID uuid.UUID, storeID *uuid.UUID) ([]models.RequestItem, error) {
	query := r.db.WithContext(ctx).
		Model(&models.RequestItem{}).
		Joins("JOIN stores ON stores.id = request_items.store_id").
		Where("request_items.status = ?", enums.RequestStatusOpen)
	if storeID != nil {
		query = query.Where("request_items.store_id = ?", *storeID)
	} else {
		query = query.Where("stores.village_id = ?", villageID)
	}

	var requests []models.RequestItem
	if err := query.
		Order("request_items.created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListClaimedByTrip(ctx context.Context, tripID uuid.UUID) ([]models.RequestItem, error) {
	var requests []models.RequestItem
	if err := r.db.WithContext(ctx).
		Where("claimed_by_trip_id = ? AND status = ?", tripID, enums.RequestStatusClaimed).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ClaimOpen transitions a single request from open to claimed. The status
// guard in the WHERE clause makes concurrent claims on the same request
// resolve to exactly one winner.
func (r *repository) ClaimOpen(ctx context.Context, id, tripID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RequestItem{}).
		Where("id = ? AND status = ?", id, enums.RequestStatusOpen).
		Updates(map[string]any{
			"status":             enums.RequestStatusClaimed,
			"claimed_by_trip_id": tripID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CancelActive(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RequestItem{}).
		Where("id = ? AND status IN ?", id, []enums.RequestStatus{
			enums.RequestStatusOpen,
			enums.RequestStatusClaimed,
		}).
		Update("status", enums.RequestStatusCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkFulfilled closes out a claimed request for the trip that claimed it.
// The claimed_by_trip_id guard keeps a request from being fulfilled by any
// other trip.
func (r *repository) MarkFulfilled(ctx context.Context, id, tripID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RequestItem{}).
		Where("id = ? AND status = ? AND claimed_by_trip_id = ?", id, enums.RequestStatusClaimed, tripID).
		Updates(map[string]any{
			"status":               enums.RequestStatusFulfilled,
			"fulfilled_by_trip_id": tripID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
