package trips

import (
	"context"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for trips.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, trip *models.Trip) error
	FindTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	ListByHouse(ctx context.Context, houseID uuid.UUID) ([]models.Trip, error)
	ListPlanned(ctx context.Context) ([]models.Trip, error)
	CompletePlanned(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a trip repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, trip *models.Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

func (r *repository) FindTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&trip).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *repository) ListByHouse(ctx context.Context, houseID uuid.UUID) ([]models.Trip, error) {
	var trips []models.Trip
	if err := r.db.WithContext(ctx).
		Where("house_id = ?", houseID).
		Order("created_at ASC").
		Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *repository) ListPlanned(ctx context.Context) ([]models.Trip, error) {
	var trips []models.Trip
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.TripStatusPlanned).
		Order("created_at ASC").
		Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

// CompletePlanned transitions a trip from planned to completed. The status
// guard keeps the transition one-directional under concurrent calls.
func (r *repository) CompletePlanned(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("id = ? AND status = ?", id, enums.TripStatusPlanned).
		Update("status", enums.TripStatusCompleted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
