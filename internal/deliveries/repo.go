package deliveries

import (
	"context"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for delivery snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) error
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Delivery, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Delivery, error)
	ListForHouse(ctx context.Context, houseID uuid.UUID) ([]models.Delivery, error)
	ListRecentRows(ctx context.Context, limit int) ([]Row, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a delivery repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *repository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *repository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	if err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("delivered_at ASC").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repository) ListForHouse(ctx context.Context, houseID uuid.UUID) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	if err := r.db.WithContext(ctx).
		Where("delivered_by_house_id = ? OR delivered_to_house_id = ?", houseID, houseID).
		Order("delivered_at ASC").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repository) ListRecentRows(ctx context.Context, limit int) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("deliveries").
		Select(`deliveries.id AS delivery_id,
			deliveries.item_name,
			deliveries.quantity,
			deliveries.unit_price,
			deliveries.total_price,
			deliveries.delivered_at,
			by_house.name AS delivered_by,
			to_house.name AS delivered_to`).
		Joins("JOIN houses AS by_house ON by_house.id = deliveries.delivered_by_house_id").
		Joins("JOIN houses AS to_house ON to_house.id = deliveries.delivered_to_house_id").
		Order("deliveries.delivered_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
